/*
Package validator is the one-shot pre-flight check a Flow passes
through exactly once, before it is frozen for any simulation run. It
never mutates the Flow; it only classifies it and reports issues.
*/
package validator
