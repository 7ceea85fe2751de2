package mcpserver

const taskSyntaxURI = "tasksort://task-syntax"

// TaskSyntax describes the task notation read by tasksort, for LLM clients
// that write or sort tasks.
const TaskSyntax = `# Task Syntax

Each task is one line of a Markdown note.

## Status

` + "```" + `markdown
* [ ] open task
- [ ] also open
* bare star bullet, treated as open
* [>] scheduled (moved to a later date)
* [x] done
* [-] cancelled
` + "```" + `

Plain ` + "`" + `-` + "`" + ` and ` + "`" + `+` + "`" + ` bullets and numbered items are list items, not tasks.

## Annotations

- **Priority** comes from the first run of exclamation marks (` + "`" + `!` + "`" + ` = 1,
  ` + "`" + `!!!` + "`" + ` = 3) or, failing that, a leading letter in parentheses:
  ` + "`" + `(A)` + "`" + ` = 1, ` + "`" + `(B)` + "`" + ` = 2. Tasks without either have priority -1.
- **Hashtags** are ` + "`" + `#word` + "`" + `, **mentions** are ` + "`" + `@word` + "`" + `. Letters, digits and
  underscores only.

## Layout

The working body of a note starts after the frontmatter and the opening
` + "`" + `# Title` + "`" + `, and ends before a trailing ` + "`" + `## Done` + "`" + ` or ` + "`" + `## Cancelled` + "`" + `
heading. sort_tasks only reads and writes tasks inside it; everything else
stays where it is.

## Sort fields

` + "`" + `content` + "`" + `, ` + "`" + `priority` + "`" + `, ` + "`" + `hashtags` + "`" + `, ` + "`" + `mentions` + "`" + `, ` + "`" + `type` + "`" + `,
` + "`" + `lineIndex` + "`" + `, ` + "`" + `indents` + "`" + `, ` + "`" + `rawContent` + "`" + `. Prefix a field with ` + "`" + `-` + "`" + ` to sort
descending. Tasks missing a field always sort after tasks that have it.
Hashtag and mention fields compare on the first value.
`
