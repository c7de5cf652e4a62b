package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# Ansuz Note Format Contract

Every Markdown note stored in Ansuz MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # RECOMMENDED – used as display name in search
tags:                               # OPTIONAL – YAML list; used for filtering and relations
  - tag-one
  - tag-two
created: 2025-01-15                 # OPTIONAL – ISO-8601 date or datetime
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use [[target|alias]] for display text that differs from the target.
Use [[target#Section]] to point at a heading inside another note.
` + "```" + `

## Rules

1. **YAML frontmatter fences**, when present, must be the first thing in the
   file (no leading blank lines): ` + "`" + `---` + "`" + ` on its own line, YAML mapping,
   closing ` + "`" + `---` + "`" + ` on its own line. Notes without frontmatter are valid.
2. **Frontmatter values are flat.** Strings, numbers, booleans, and lists of
   scalars only — no nested mappings.
3. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `meeting-notes` + "`" + `),
   stored under the ` + "`" + `tags` + "`" + ` key as a list or a single string.
4. **Wikilinks** use double brackets: ` + "`" + `[[other-note]]` + "`" + `. The target is the
   filename stem (no ` + "`" + `.md` + "`" + ` extension, path separators OK: ` + "`" + `[[folder/note]]` + "`" + `).
   Alias (` + "`" + `|` + "`" + `) and heading (` + "`" + `#` + "`" + `) suffixes do not change the target.
5. **Headings** start at column 0: 1–6 ` + "`" + `#` + "`" + ` characters, whitespace, then
   non-empty text. Section-addressing tools match on level and normalized text.
6. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
7. **Encoding** is UTF-8 with a trailing newline.
8. **No HTML** unless absolutely necessary; prefer Markdown equivalents.

## Assets & Images

- Upload assets via the HTTP API (` + "`" + `POST /api/attachments` + "`" + `); the response
  contains a ` + "`" + `markdownImage` + "`" + ` field ready to paste into the note body.
- Assets are stored in the shared ` + "`" + `attachments/` + "`" + ` directory (flat, no sub-folders).
- Reference in notes using the absolute path: ` + "`" + `![description](/attachments/filename.png)` + "`" + `
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.
- Do **not** use relative paths like ` + "`" + `./attachments/...` + "`" + ` — always use ` + "`" + `/attachments/filename` + "`" + `.

## Example

` + "```" + `markdown
---
title: Weekly standup 2025-01-20
tags:
  - meeting-notes
  - project-x
created: 2025-01-20
---

# Weekly standup 2025-01-20

Attendees: Alice, Bob.

![Whiteboard photo](/attachments/standup-2025-01-20.jpg)

## Action items

- [[alice]] to review the [[design-doc]]
- Bob to update [[project-x/roadmap|the roadmap]]
` + "```" + `
`
