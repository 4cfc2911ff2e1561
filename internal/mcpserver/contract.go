package mcpserver

// FormatContract describes the outline document format that LLM consumers
// must follow when creating or editing documents.
const FormatContract = `# Nexusmap Document Format Contract

A document is an indented outline, optionally followed by a separator line
and fenced JSON registries.

## Structure

` + "```" + `text
Checkout
  Cart #flow# <!-- tags:actor-applicant -->
    Pay #flow# <!-- rn:1 -->
  Status (State=Open)
  Status (State=Closed)
---
` + "```" + `

## Outline rules

1. **Indentation** is two spaces per level. Tabs are rejected. A line may be
   at most one level deeper than the line above it.
2. **Tags in titles:** ` + "`#flow#`" + ` marks a flow node, ` + "`#flowtab#`" + ` a flow tab
   root, ` + "`#common#`" + ` a shared node.
3. **Markers** are HTML comments of the form ` + "`<!-- key:value -->`" + ` at the end
   of a line: ` + "`rn`" + ` (running number), ` + "`expid`" + ` (expanded node),
   ` + "`fid`" + ` (flow tab id, ` + "`flowtab-N`" + `), ` + "`tags`" + ` (comma-separated tag ids),
   ` + "`do`" + ` / ` + "`doattrs`" + ` (data object and attribute ids), ` + "`icon`" + `, ` + "`ann`" + `,
   ` + "`desc`" + `, ` + "`hubnote`" + `.
4. **Hubs:** siblings with the same title and different ` + "`(Key=Value)`" + `
   conditions are variants of one hub. Use one condition key per hub.
5. **No actor prefixes** such as ` + "`Staff:`" + ` in titles; use an ` + "`actor-*`" + ` tag.
6. **Node ids** (` + "`node-N`" + `) are positional and change on every edit. Use
   running numbers for stable references.

## Registries

Below a single ` + "`---`" + ` line, each registry is a fenced block whose info
string is its name and whose body is one JSON value:

- ` + "`nexus-doc`" + `: header, ` + "`{\"kind\":\"note|diagram|grid\"}`" + `.
- ` + "`running-numbers`" + `: high-water marks per family.
- ` + "`flow-nodes`" + `: flow node types (step, validation, branch, loop, time).
- ` + "`tag-store`" + ` / ` + "`pinned-tags`" + `: tag groups and tags.
- ` + "`data-objects`" + `: data objects and their attributes.
- ` + "`flow-connector-labels`" + `: labels keyed ` + "`node-A__node-B`" + ` for parent to child edges.
- ` + "`expanded-metadata-N`" + ` / ` + "`expanded-grid-N`" + `: expanded node size and grid.
- ` + "`flowtab-swimlane-<fid>`" + `: lanes, stages and placement of a flow tab.
- ` + "`flowtab-process-references`" + `, ` + "`process-goto-targets`" + `, ` + "`condition-descriptions`" + `,
  ` + "`hub-notes`" + `, ` + "`testing-store`" + `.

Every key in a registry must resolve to a live node, marker or id.
Malformed JSON is reported per block and never blocks other blocks.

## Editing

- Prefer the mutation tools (` + "`toggle_flow`" + `, ` + "`bulk_delete`" + `, ` + "`delete_flow`" + `,
  ` + "`add_test`" + `, ` + "`apply_mutation`" + `) over rewriting text: they keep registries consistent.
- Run ` + "`validate_document`" + ` after every manual edit.
- File paths end with ` + "`.md`" + ` and use forward slashes. Encoding is UTF-8.
`
