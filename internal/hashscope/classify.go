package hashscope

// MutationClass is the coarse, heuristic label attached to a logged
// mutation. It is never derived from semantic analysis of the change.
type MutationClass string

const (
	MutationASTRefactor     MutationClass = "AST_REFACTOR"
	MutationIntentEvolution MutationClass = "INTENT_EVOLUTION"
	MutationBugFix          MutationClass = "BUG_FIX"
	MutationDocumentation   MutationClass = "DOCUMENTATION"
	MutationConfiguration   MutationClass = "CONFIGURATION"
	MutationFileCreation    MutationClass = "FILE_CREATION"
	MutationFileDeletion    MutationClass = "FILE_DELETION"
)

// refactorTools are tools whose mutation is a targeted edit of existing
// content rather than a wholesale rewrite.
var refactorTools = map[string]struct{}{
	"apply_diff":         {},
	"edit":               {},
	"search_and_replace": {},
	"search_replace":     {},
	"edit_file":          {},
	"apply_patch":        {},
}

// ClassifyMutation applies the heuristic from the mutation-classification
// design: creation beats tool-name dispatch, a narrow set of edit tools
// counts as refactor, write_to_file counts as intent evolution, shell
// execution counts as configuration, and everything else defaults to
// intent evolution. preHash is the empty string when the file did not
// exist before the call.
func ClassifyMutation(toolName string, preHash string) MutationClass {
	if preHash == "" {
		return MutationFileCreation
	}
	if _, ok := refactorTools[toolName]; ok {
		return MutationASTRefactor
	}
	if toolName == "write_to_file" {
		return MutationIntentEvolution
	}
	if toolName == "execute_command" {
		return MutationConfiguration
	}
	return MutationIntentEvolution
}
