package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

const accessRulesURI = "quire://access-rules"

// AccessRules describes, for LLM consumers, who may do what with a note.
const AccessRules = `# Quire Note Access Rules

Every note has one **author** (the user who created it) and a set of
**shared users**.

| Action | Author | Shared user | Anyone else |
|---|---|---|---|
| read, list, search | yes | yes | no, the note looks like it does not exist |
| update title/content | yes | yes | no, not found |
| delete | deletes the note | removes themselves from the note | forbidden |
| share with another user | yes | no, not found | no, not found |
| unshare | anyone | only themselves | not found |

## Notes

- Updates accept only ` + "`title`" + ` and ` + "`content`" + `. Any other field is rejected
  and nothing changes. A title can never be blank.
- Every note carries a ` + "`version`" + `. Pass it to ` + "`update_note`" + ` to fail with a
  conflict instead of overwriting someone else's newer edit.
- Sharing with the author, or with a user who already has access, changes nothing.
- Ownership is never transferred.
`

func (s *Server) readAccessRulesResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      accessRulesURI,
			MIMEType: "text/markdown",
			Text:     AccessRules,
		},
	}, nil
}
