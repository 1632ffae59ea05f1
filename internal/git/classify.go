package git

import (
	"regexp"

	"github.com/okanester/gitbridge/internal/git/domain"
)

// classifierRule pairs a stderr pattern with the error code it implies.
type classifierRule struct {
	pattern *regexp.Regexp
	code    domain.ErrorCode
}

// classifierRules is the fixed, ordered rule set the global classifier
// evaluates against stderr. The first matching rule wins; order only
// matters where two rules could match the same text (none currently
// overlap). Patterns that are only unambiguous in one verb's context
// live with their verbs, not here.
var classifierRules = []classifierRule{
	{regexp.MustCompile(`Another git process seems to be running`), domain.RepositoryLocked},
	{regexp.MustCompile(`(?i)authentication failed`), domain.AuthenticationFailed},
	{regexp.MustCompile(`(?i)not a git repository`), domain.NotARepository},
	{regexp.MustCompile(`bad config file`), domain.BadConfigFile},
	{regexp.MustCompile(`(?i)repository '.+' not found|repository not found`), domain.RemoteNotFound},
	{regexp.MustCompile(`unable to access`), domain.RemoteConnectionError},
	{regexp.MustCompile(`branch '.+' is not fully merged`), domain.BranchNotFullyMerged},
	{regexp.MustCompile(`[Cc]ouldn't find remote ref`), domain.NoRemoteReference},
	{regexp.MustCompile(`[Aa] branch named '.+' already exists`), domain.BranchAlreadyExists},
	{regexp.MustCompile(`'.+' is not a valid branch name`), domain.InvalidBranchName},
	{regexp.MustCompile(`failed to push some refs`), domain.PushRejected},
	{regexp.MustCompile(`Please,? commit your changes or stash them`), domain.DirtyWorkingTree},
}

// Classify inspects stderr text and reports the error code of the first
// matching rule. It is total and side-effect-free; no match reports
// ok=false and the caller keeps its generic error.
func Classify(stderr string) (domain.ErrorCode, bool) {
	for _, rule := range classifierRules {
		if rule.pattern.MatchString(stderr) {
			return rule.code, true
		}
	}
	return "", false
}

// classified annotates an unclassified *domain.GitError in err's chain
// with the global classifier's verdict. Errors that already carry a code
// pass through unchanged.
func classified(err error) error {
	if err == nil {
		return nil
	}
	ge, ok := domain.AsGitError(err)
	if !ok || ge.Code != "" {
		return err
	}
	if code, matched := Classify(ge.Stderr); matched {
		ge.Code = code
	}
	return err
}

// promote assigns code to an unclassified GitError whose stderr or stdout
// matches one of the patterns. Used by verbs for context-specific codes
// the global classifier cannot safely own.
func promote(err error, code domain.ErrorCode, patterns ...*regexp.Regexp) error {
	ge, ok := domain.AsGitError(err)
	if !ok || ge.Code != "" {
		return err
	}
	for _, p := range patterns {
		if p.MatchString(ge.Stderr) || p.MatchString(ge.Stdout) {
			ge.Code = code
			return err
		}
	}
	return err
}
