package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otusforge/resourced/pkg/resource"
	"github.com/otusforge/resourced/pkg/tasklist"
)

// newResourceCmd builds the create/delete/start/stop/list/debug command
// group for one resource type. Every leaf Run is exactly one
// ResourcesManager call: create/delete/start/stop relay the returned
// TaskList through relayProgress, list and debug print their result as JSON.
func newResourceCmd(resourceType string) *cobra.Command {
	group := &cobra.Command{
		Use:   resourceType,
		Short: fmt.Sprintf("Manage %s resources", resourceType),
	}

	var opts []string

	create := &cobra.Command{
		Use:   "create <name>",
		Short: fmt.Sprintf("Create a %s", resourceType),
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rt := loadRuntime()
			mgr, err := rt.manager(resourceType)
			if err != nil {
				exitWithError("resolve manager", err)
			}
			relayProgress(mgr.Create(cmd.Context(), args[0], parseOptions(opts)))
		},
	}
	create.Flags().StringArrayVar(&opts, "set", nil, "option as key=value, repeatable")

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: fmt.Sprintf("Delete a %s", resourceType),
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rt := loadRuntime()
			mgr, err := rt.manager(resourceType)
			if err != nil {
				exitWithError("resolve manager", err)
			}
			relayProgress(mgr.Delete(cmd.Context(), args[0], nil))
		},
	}

	start := &cobra.Command{
		Use:   "start <name>",
		Short: fmt.Sprintf("Start a %s", resourceType),
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rt := loadRuntime()
			mgr, err := rt.manager(resourceType)
			if err != nil {
				exitWithError("resolve manager", err)
			}
			relayProgress(mgr.Start(cmd.Context(), args[0], nil))
		},
	}

	stop := &cobra.Command{
		Use:   "stop <name>",
		Short: fmt.Sprintf("Stop a %s", resourceType),
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rt := loadRuntime()
			mgr, err := rt.manager(resourceType)
			if err != nil {
				exitWithError("resolve manager", err)
			}
			relayProgress(mgr.Stop(cmd.Context(), args[0], nil))
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List every installed %s", resourceType),
		Run: func(cmd *cobra.Command, args []string) {
			rt := loadRuntime()
			mgr, err := rt.manager(resourceType)
			if err != nil {
				exitWithError("resolve manager", err)
			}
			printJSON(mgr.GetResources(nil))
		},
	}

	debug := &cobra.Command{
		Use:   "debug",
		Short: fmt.Sprintf("Show debug tables for every installed %s", resourceType),
		Run: func(cmd *cobra.Command, args []string) {
			rt := loadRuntime()
			mgr, err := rt.manager(resourceType)
			if err != nil {
				exitWithError("resolve manager", err)
			}
			printJSON(mgr.Debug())
		},
	}

	group.AddCommand(create, del, start, stop, list, debug)
	return group
}

func parseOptions(pairs []string) resource.Options {
	if len(pairs) == 0 {
		return nil
	}
	opts := make(resource.Options, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		opts[k] = v
	}
	return opts
}

// relayProgress subscribes to tl (the subscription replays any events the
// already-running list emitted before it), prints every progress envelope
// verbatim as indented JSON, then reports the final outcome via Wait.
func relayProgress(tl *tasklist.TaskList) {
	events, unsubscribe := tl.Subscribe()
	defer unsubscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			printJSON(e)
		}
	}()

	err := tl.Wait()
	<-done
	if err != nil {
		exitWithError("operation failed", err)
	}
}

func printJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitWithError("encode result", err)
		return
	}
	fmt.Println(string(b))
}
