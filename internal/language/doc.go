// Package language resolves the language tag of a source unit.
//
// Detection is a pure function of the file path and the code body: the file
// extension wins when it is recognized, otherwise a small set of content
// heuristics is tried, and anything else resolves to [Unknown]. Reviewers key
// their prompt variants on the returned [Tag].
package language
