// Package contextbuild assembles the curated activation payload handed to
// the assistant when an intent is selected: the intent's own scope and
// acceptance criteria, a handful of related files and spec excerpts, and
// the most recent ledger activity — truncated to a fixed byte budget.
package contextbuild

import (
	"bufio"
	"os"
	"strings"

	"github.com/boshu2/intentgate/internal/intent"
	"github.com/boshu2/intentgate/internal/ledger"
)

// Budget is the maximum serialized size of a formatted context block.
const Budget = 16384

// SpecExcerptLimit is the maximum byte length an individual related-spec
// excerpt is truncated to before the overall budget pass runs.
const SpecExcerptLimit = 2048

// RecentEntriesLimit bounds how many ledger entries are pulled per intent.
const RecentEntriesLimit = 20

const truncationMarker = "\n...[truncated]"

// SpecExcerpt is a related_specs reference resolved to file content.
type SpecExcerpt struct {
	Ref     string
	Content string
}

// Context is the curated payload for one intent.
type Context struct {
	ID                 string
	Name               string
	Status             intent.Status
	Version            int
	Scope              []string
	Constraints        []string
	AcceptanceCriteria []string
	RelatedFiles       []string
	SpecExcerpts       []SpecExcerpt
	RecentEntries      []ledger.Entry
}

// Build assembles and budget-truncates the context for id. It returns
// (nil, false) if the intent is absent from the catalog.
func Build(cat *intent.Catalog, led *ledger.Ledger, workspaceRoot, spatialMapPath string, id string) (*Context, bool) {
	in, ok := cat.Find(id)
	if !ok {
		return nil, false
	}

	ctx := &Context{
		ID:                 in.ID,
		Name:               in.Name,
		Status:             in.Status,
		Version:            in.Version,
		Scope:              in.OwnedScope,
		Constraints:        in.Constraints,
		AcceptanceCriteria: in.AcceptanceCriteria,
		RelatedFiles:       spatialEntriesFor(spatialMapPath, id),
		SpecExcerpts:       resolveRelatedSpecs(workspaceRoot, in.RelatedSpecs),
		RecentEntries:      led.GetRecentEntries(id, RecentEntriesLimit),
	}

	truncateToBudget(ctx)
	return ctx, true
}

// resolveRelatedSpecs reads the speckit/constitution-typed related_specs
// references relative to workspaceRoot, truncating each to SpecExcerptLimit
// bytes. Unreadable references are silently skipped — they are informational.
func resolveRelatedSpecs(workspaceRoot string, specs []intent.RelatedSpec) []SpecExcerpt {
	var excerpts []SpecExcerpt
	for _, spec := range specs {
		if spec.Type != intent.RelatedSpecSpeckit && spec.Type != intent.RelatedSpecConstitution {
			continue
		}
		data, err := os.ReadFile(joinWorkspace(workspaceRoot, spec.Ref))
		if err != nil {
			continue
		}
		content := string(data)
		if len(content) > SpecExcerptLimit {
			content = content[:SpecExcerptLimit] + truncationMarker
		}
		excerpts = append(excerpts, SpecExcerpt{Ref: spec.Ref, Content: content})
	}
	return excerpts
}

func joinWorkspace(root, ref string) string {
	if root == "" {
		return ref
	}
	return strings.TrimRight(root, "/") + "/" + strings.TrimLeft(ref, "/")
}

// spatialEntriesFor scans the spatial map's "## <id>" section for file
// entries listed under its "### Files" subsection.
func spatialEntriesFor(path, id string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var files []string
	inSection := false
	inFilesSub := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "## "):
			inSection = strings.HasPrefix(strings.TrimPrefix(line, "## "), id)
			inFilesSub = false
			continue
		case strings.HasPrefix(line, "### "):
			inFilesSub = inSection && strings.TrimSpace(strings.TrimPrefix(line, "### ")) == "Files"
			continue
		}
		if !inSection || !inFilesSub {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") {
			files = append(files, strings.TrimSpace(strings.TrimPrefix(trimmed, "- ")))
		}
	}
	return files
}

// truncateToBudget drops, in order, oldest trace entries, then spec
// excerpts one at a time, then oldest related files, until the formatted
// size fits Budget. Scope, constraints, and acceptance criteria are never
// dropped.
func truncateToBudget(ctx *Context) {
	for len(FormatForPrompt(ctx)) > Budget {
		if len(ctx.RecentEntries) > 0 {
			ctx.RecentEntries = ctx.RecentEntries[1:]
			continue
		}
		if len(ctx.SpecExcerpts) > 0 {
			ctx.SpecExcerpts = ctx.SpecExcerpts[1:]
			continue
		}
		if len(ctx.RelatedFiles) > 0 {
			ctx.RelatedFiles = ctx.RelatedFiles[1:]
			continue
		}
		break
	}
}
