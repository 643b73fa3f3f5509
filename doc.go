// Package gitsync synchronizes a workspace directory with a remote git
// repository.
//
// The package is a facade over go-git. An Engine is bound to one workspace
// and exposes blocking, task-oriented operations: repository discovery and
// initialization, status, branches, staging, commits, history, diffs, and
// the fetch/fast-forward/push cycle. Every operation re-opens the
// repository, so an Engine carries no repository state between calls.
//
// # Basic Usage
//
//	engine, err := gitsync.New(gitsync.Options{
//	    Workspace: "/path/to/workspace",
//	    Vault:     &vault.Env{},
//	    Logger:    slog.Default(),
//	})
//	if err != nil {
//	    return err
//	}
//
//	if _, err := engine.OpenOrInit(ctx); err != nil {
//	    return err
//	}
//
//	status, err := engine.Status(ctx)
//
// # Making Commits
//
//	// Stage everything, deletions included
//	err = engine.Stage(ctx, nil)
//
//	// Or stage selected paths and glob patterns
//	err = engine.Stage(ctx, []string{"prompts/*.yaml", "README.md"})
//
//	hash, err := engine.Commit(ctx, "feat(prompts): add greeting prompt")
//
// # Synchronization
//
// Pull fetches the upstream of the current branch and fast-forwards when
// possible. Diverged histories are reported, never merged:
//
//	result, err := engine.Pull(ctx)
//	if err != nil {
//	    return err // network, timeout or authentication failure
//	}
//	if result.Outcome == gitsync.OutcomeDiverged {
//	    fmt.Println(result.Message)
//	}
//
//	pushed, err := engine.Push(ctx)
//
// Expected conditions such as a missing remote or a repository without
// commits are reported through the result's Success and Message fields.
//
// # Configuration
//
// Each workspace may store a SyncConfig at .vibebase/git_config.yaml. It
// selects the remote, the authentication method and the vault references
// of SSH passphrases and access tokens. Secret values are never stored in
// it. Without a record the engine uses DefaultSyncConfig.
//
// # Authentication
//
// Credentials are negotiated in order: SSH agent, configured key file,
// token from the vault, then anonymous or default SSH identities. When the
// remote rejects a credential the operation is retried with the next one.
//
// # Error Handling
//
// Failures wrap the sentinel errors of this package and can be checked
// with errors.Is:
//
//	if errors.Is(err, gitsync.ErrAuthenticationFailed) {
//	    // ask for credentials
//	}
//
// # Concurrency
//
// An Engine holds no locks. Callers that may run operations on the same
// workspace concurrently serialize them with WorkspaceLocks.
package gitsync
