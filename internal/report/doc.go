// Package report renders and persists the result of a sign run.
//
// Writers share the Writer interface:
//   - JSONWriter: the detailed report (sign_results.json) and the summary
//     (summary.json)
//   - SimpleWriter: plain text for the console and e-mail
//   - MarkdownWriter: GitHub-flavored markdown for job step summaries
//
// Persist writes the file outputs of a run in one call.
package report
