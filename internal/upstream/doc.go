// Package upstream discovers template commits that a project has not yet
// incorporated and replays selected ones onto the current branch.
//
// The package implements:
//   - History normalization from git log queries
//   - Candidate discovery relative to the project's fork point
//   - Dependency-bump classification of commit messages
//   - The apply state machine (stash, replay, commit, restore)
//   - A journal that makes an interrupted run resumable
//
// Every replayed commit carries the marker phrase followed by the original
// template hash in its body, which is how later runs recognize it as applied.
//
// Usage:
//
//	runner := git.NewGitRunner(dir)
//	candidates, err := upstream.Discover(ctx, runner, "template/main")
//	if err != nil {
//	    return err
//	}
//	applier := upstream.NewApplier(runner, installer, resolver)
//	results, err := applier.ApplyAll(ctx, candidates, nil)
package upstream
