// Package review contains the fragment partitioner and the two sequential
// protocols built on it.
//
// [Partition] splits a file into fragments whose rendered prompt never
// exceeds a character budget. Lines are kept whole when they fit; an
// oversized line is cut into budget-sized pieces that are emitted alone.
// Concatenating the fragments reproduces the input exactly.
//
// [Summarizer] folds a running summary across fragments, one inference call
// at a time, to infer what a program does. [Reviewer] checks each fragment
// for fatal errors and, only when none are found, for convention violations
// (rules.go). Calls within a review pass run with bounded concurrency and are
// reassembled in fragment order.
//
// [Engine] ties these to files on disk: it reads and redacts a file, loads
// rules and prompts, and exposes InferProgramPurpose, GenerateComments and
// Analyze.
package review
