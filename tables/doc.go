// Package tables detects tabular structure in extracted page text.
//
// Detection is geometric: a run of consecutive lines whose fragments
// start at the same X positions is treated as rows of a grid. No
// ruling lines are required, which matches how most generated PDFs
// lay out tables. A grid must be at least 2x2 before it is reported;
// anything smaller is ordinary multi-column text.
package tables
