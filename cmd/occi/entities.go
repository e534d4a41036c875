package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/artpar/occi/adapters/prompt"
	"github.com/artpar/occi/app"
	"github.com/artpar/occi/bootstrap"
	"github.com/artpar/occi/config"
	"github.com/artpar/occi/core/category"
	"github.com/artpar/occi/core/registry"
	"github.com/artpar/occi/core/render"
	"github.com/artpar/occi/ports"
	"github.com/spf13/cobra"
)

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Manage entities",
	Long: `Manage OCCI entities.

Entities are typed resource instances: each has a kind, optional
mixins, and attributes validated against the category catalogue.
Commands work against the configured backend, or against a running
server with --server.

Examples:
  occi entities list --kind compute
  occi entities create --kind compute -a occi.compute.cores=4 -a occi.compute.state=active
  occi entities trigger vm-1 stop
  occi entities delete vm-1`,
}

var entitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entities",
	RunE:  runEntitiesList,
}

var entitiesDescribeCmd = &cobra.Command{
	Use:   "describe <entity-id>",
	Short: "Show entity details",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntitiesDescribe,
}

var entitiesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new entity",
	RunE:  runEntitiesCreate,
}

var entitiesSetCmd = &cobra.Command{
	Use:   "set <entity-id>",
	Short: "Update entity attributes",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntitiesSet,
}

var entitiesDeleteCmd = &cobra.Command{
	Use:   "delete <entity-id>",
	Short: "Delete an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntitiesDelete,
}

var entitiesActionsCmd = &cobra.Command{
	Use:   "actions <entity-id>",
	Short: "List actions applicable to an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntitiesActions,
}

var entitiesTriggerCmd = &cobra.Command{
	Use:   "trigger <entity-id> <action>",
	Short: "Trigger an action on an entity",
	Args:  cobra.ExactArgs(2),
	RunE:  runEntitiesTrigger,
}

var entitiesAttachCmd = &cobra.Command{
	Use:   "attach <entity-id> <mixin>",
	Short: "Attach a mixin to an entity",
	Args:  cobra.ExactArgs(2),
	RunE:  runEntitiesAttach,
}

var entitiesDetachCmd = &cobra.Command{
	Use:   "detach <entity-id> <mixin>",
	Short: "Detach a mixin from an entity",
	Args:  cobra.ExactArgs(2),
	RunE:  runEntitiesDetach,
}

var (
	entityOutput      string
	listKind          string
	listMixin         string
	entityKind        string
	entityMixins      []string
	entityAttrs       []string
	entityID          string
	createInteractive bool
	entityForce       bool
	actionParams      []string
)

var (
	serverURL      string
	serverUsername string
	serverPassword string
)

func init() {
	rootCmd.AddCommand(entitiesCmd)

	entitiesCmd.AddCommand(entitiesListCmd)
	entitiesCmd.AddCommand(entitiesDescribeCmd)
	entitiesCmd.AddCommand(entitiesCreateCmd)
	entitiesCmd.AddCommand(entitiesSetCmd)
	entitiesCmd.AddCommand(entitiesDeleteCmd)
	entitiesCmd.AddCommand(entitiesActionsCmd)
	entitiesCmd.AddCommand(entitiesTriggerCmd)
	entitiesCmd.AddCommand(entitiesAttachCmd)
	entitiesCmd.AddCommand(entitiesDetachCmd)

	entitiesCmd.PersistentFlags().StringVarP(&entityOutput, "output", "o", "table", "output format: table, json or yaml")
	addClientFlags(entitiesCmd)

	entitiesListCmd.Flags().StringVar(&listKind, "kind", "", "filter by kind identifier or term")
	entitiesListCmd.Flags().StringVar(&listMixin, "mixin", "", "filter by mixin identifier or term")

	entitiesCreateCmd.Flags().StringVar(&entityKind, "kind", "", "kind identifier or term (required)")
	entitiesCreateCmd.Flags().StringArrayVarP(&entityMixins, "mixin", "m", nil, "mixin to attach (repeatable)")
	entitiesCreateCmd.Flags().StringArrayVarP(&entityAttrs, "attr", "a", nil, "attribute as name=value (repeatable)")
	entitiesCreateCmd.Flags().StringVar(&entityID, "id", "", "entity id (generated if omitted)")
	entitiesCreateCmd.Flags().BoolVarP(&createInteractive, "interactive", "i", false, "prompt for missing required attributes")
	entitiesCreateCmd.MarkFlagRequired("kind")

	entitiesSetCmd.Flags().StringArrayVarP(&entityAttrs, "attr", "a", nil, "attribute as name=value (repeatable)")
	entitiesSetCmd.MarkFlagRequired("attr")

	entitiesDeleteCmd.Flags().BoolVar(&entityForce, "force", false, "skip confirmation")

	entitiesTriggerCmd.Flags().StringArrayVarP(&actionParams, "param", "p", nil, "action parameter as name=value (repeatable)")
}

// addClientFlags registers the flags that point a management command
// at a running server instead of the locally configured backend.
func addClientFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (talk to a running server instead of the local backend)")
	cmd.PersistentFlags().StringVar(&serverUsername, "username", "", "basic auth username for --server")
	cmd.PersistentFlags().StringVar(&serverPassword, "password", "", "basic auth password for --server (prompted when omitted)")
}

// resolveCredentials prompts for the password when a username was
// given without one.
func resolveCredentials(p ports.CredentialPrompter, user, pass string) (string, string, error) {
	if user == "" || pass != "" {
		return user, pass, nil
	}
	secret, err := p.PromptSecret(fmt.Sprintf("Password for %s: ", user))
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	return user, secret, nil
}

func runEntitiesList(cmd *cobra.Command, args []string) error {
	a, err := openStack()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	opts := app.ListOptions{}
	if listKind != "" {
		if opts.Kind, err = resolveCategoryArg(a, listKind, registry.Kinds); err != nil {
			return err
		}
	}
	if listMixin != "" {
		if opts.Mixin, err = resolveCategoryArg(a, listMixin, registry.Mixins); err != nil {
			return err
		}
	}

	instances, err := a.Entities.List(context.Background(), opts)
	if err != nil {
		return fmt.Errorf("failed to list entities: %w", err)
	}

	if len(instances) == 0 && entityOutput == "table" {
		fmt.Println("No entities found.")
		fmt.Println()
		fmt.Println("Create one with: occi entities create --kind compute -a occi.compute.state=active")
		return nil
	}

	f, err := formatterFor(entityOutput)
	if err != nil {
		return err
	}
	views := make([]render.EntityView, 0, len(instances))
	for _, inst := range instances {
		views = append(views, render.NewEntityView(inst.Entity))
	}
	return f.FormatEntities(os.Stdout, views, render.Options{})
}

func runEntitiesDescribe(cmd *cobra.Command, args []string) error {
	a, err := openStack()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	inst, err := a.Entities.Describe(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("entity not found: %s", args[0])
	}

	f, err := formatterFor(entityOutput)
	if err != nil {
		return err
	}
	if err := f.FormatEntity(os.Stdout, render.NewEntityView(inst.Entity), render.Options{}); err != nil {
		return err
	}

	if entityOutput == "table" {
		fmt.Printf("Created:  %s\n", inst.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated:  %s\n", inst.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runEntitiesCreate(cmd *cobra.Command, args []string) error {
	a, err := openStack()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	kindID, err := resolveCategoryArg(a, entityKind, registry.Kinds)
	if err != nil {
		return err
	}
	mixinIDs := make([]string, 0, len(entityMixins))
	for _, raw := range entityMixins {
		id, err := resolveCategoryArg(a, raw, registry.Mixins)
		if err != nil {
			return err
		}
		mixinIDs = append(mixinIDs, id)
	}

	schema, err := buildSchema(a, kindID, mixinIDs)
	if err != nil {
		return err
	}
	attrs, err := parseAttrPairs(schema, entityAttrs)
	if err != nil {
		return err
	}
	if createInteractive {
		attrs, err = prompt.NewPrompter().PromptForAttributes(schema, attrs)
		if err != nil {
			return err
		}
	}

	inst, err := a.Entities.Create(context.Background(), app.CreateRequest{
		ID:         entityID,
		Kind:       kindID,
		Mixins:     mixinIDs,
		Attributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("failed to create entity: %w", err)
	}

	fmt.Printf("%s Created entity: %s\n", checkMark, inst.Entity.ID())
	fmt.Printf("   Kind:   %s\n", kindID)
	if len(mixinIDs) > 0 {
		fmt.Printf("   Mixins: %s\n", strings.Join(mixinIDs, ", "))
	}
	fmt.Printf("   State:  %s\n", inst.State)
	return nil
}

func runEntitiesSet(cmd *cobra.Command, args []string) error {
	a, err := openStack()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	ctx := context.Background()
	inst, err := a.Entities.Describe(ctx, args[0])
	if err != nil {
		return fmt.Errorf("entity not found: %s", args[0])
	}

	attrs, err := parseAttrPairs(inst.Entity.Schema(), entityAttrs)
	if err != nil {
		return err
	}

	if _, err := a.Entities.SetAttributes(ctx, args[0], attrs); err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}

	fmt.Printf("%s Updated entity: %s (%d attributes)\n", checkMark, args[0], len(attrs))
	return nil
}

func runEntitiesDelete(cmd *cobra.Command, args []string) error {
	a, err := openStack()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	ctx := context.Background()
	if _, err := a.Entities.Describe(ctx, args[0]); err != nil {
		return fmt.Errorf("entity not found: %s", args[0])
	}

	if !entityForce && !confirm(fmt.Sprintf("Delete entity %s?", args[0])) {
		fmt.Println("Aborted.")
		return nil
	}

	if err := a.Entities.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	fmt.Printf("%s Deleted entity: %s\n", checkMark, args[0])
	return nil
}

func runEntitiesActions(cmd *cobra.Command, args []string) error {
	a, err := openStack()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	actions, err := a.Entities.ApplicableActions(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("entity not found: %s", args[0])
	}

	if len(actions) == 0 {
		fmt.Println("No actions applicable.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACTION\tTITLE\tPARAMETERS")
	fmt.Fprintln(w, "------\t-----\t----------")

	for _, act := range actions {
		params := make([]string, 0, len(act.Attributes))
		for _, attr := range act.Attributes {
			params = append(params, attr.Name)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", act.ID().String(), act.Title, strings.Join(params, ", "))
	}

	w.Flush()
	return nil
}

func runEntitiesTrigger(cmd *cobra.Command, args []string) error {
	a, err := openStack()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	ctx := context.Background()
	action, err := resolveAction(a, args[0], args[1])
	if err != nil {
		return err
	}

	params, err := parseActionParams(action, actionParams)
	if err != nil {
		return err
	}

	inst, err := a.Entities.Trigger(ctx, args[0], action.ID().String(), params)
	if err != nil {
		return fmt.Errorf("failed to trigger %s: %w", action.ID().Term, err)
	}

	fmt.Printf("%s Triggered %s on %s\n", checkMark, action.ID().Term, args[0])
	fmt.Printf("   State: %s\n", inst.State)
	return nil
}

func runEntitiesAttach(cmd *cobra.Command, args []string) error {
	a, err := openStack()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	mixinID, err := resolveCategoryArg(a, args[1], registry.Mixins)
	if err != nil {
		return err
	}

	if _, err := a.Entities.AttachMixin(context.Background(), args[0], mixinID); err != nil {
		return fmt.Errorf("failed to attach mixin: %w", err)
	}

	fmt.Printf("%s Attached %s to %s\n", checkMark, mixinID, args[0])
	return nil
}

func runEntitiesDetach(cmd *cobra.Command, args []string) error {
	a, err := openStack()
	if err != nil {
		return err
	}
	defer a.Shutdown()

	mixinID, err := resolveCategoryArg(a, args[1], registry.Mixins)
	if err != nil {
		return err
	}

	if _, err := a.Entities.DetachMixin(context.Background(), args[0], mixinID); err != nil {
		return fmt.Errorf("failed to detach mixin: %w", err)
	}

	fmt.Printf("%s Detached %s from %s\n", checkMark, mixinID, args[0])
	return nil
}

// openStack builds the services management commands run against. With
// --server (or a remote backend in the config) everything goes through
// the running server; otherwise the configured backend is opened
// directly, the same way serve does.
func openStack() (*bootstrap.App, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if serverURL != "" {
		cfg.Backend.Mode = "remote"
		cfg.Backend.Remote.URL = serverURL
		cfg.Backend.Remote.Username = serverUsername
		cfg.Backend.Remote.Password = serverPassword
	}

	if cfg.Backend.Mode == "memory" && serverURL == "" {
		return nil, fmt.Errorf("the in-memory backend keeps no state between processes; pass --server or configure a sqlite or remote backend")
	}

	// Management commands mirror the server's catalogue so kinds and
	// mixins resolve, and keep log output out of the way.
	if cfg.Backend.Mode == "remote" {
		cfg.Catalogue.FromBackend = true
		user, pass, err := resolveCredentials(prompt.NewPrompter(), cfg.Backend.Remote.Username, cfg.Backend.Remote.Password)
		if err != nil {
			return nil, err
		}
		cfg.Backend.Remote.Username = user
		cfg.Backend.Remote.Password = pass
	}
	cfg.Catalogue.Watch = false
	cfg.Logging.Level = "error"

	return bootstrap.New(cfg)
}

func formatterFor(name string) (render.Formatter, error) {
	f, ok := render.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, strings.Join(render.List(), ", "))
	}
	return f, nil
}

// resolveCategoryArg expands a bare term like "compute" to a full
// identifier by searching the catalogue. Full identifiers pass through
// untouched.
func resolveCategoryArg(a *bootstrap.App, raw string, f registry.Filter) (string, error) {
	if strings.Contains(raw, "#") {
		return raw, nil
	}

	var matches []string
	for _, def := range a.Catalogue.Definitions(f) {
		if def.ID().Term == raw {
			matches = append(matches, def.ID().String())
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no %s named %q in the catalogue", f, raw)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s %q is ambiguous, use a full identifier: %s", f, raw, strings.Join(matches, ", "))
	}
}

// resolveAction matches an action argument (bare term or full
// identifier) against the actions applicable to the entity.
func resolveAction(a *bootstrap.App, id, raw string) (*category.Action, error) {
	actions, err := a.Entities.ApplicableActions(context.Background(), id)
	if err != nil {
		return nil, fmt.Errorf("entity not found: %s", id)
	}

	var matches []*category.Action
	for _, act := range actions {
		if act.ID().String() == raw || (!strings.Contains(raw, "#") && act.ID().Term == raw) {
			matches = append(matches, act)
		}
	}

	switch len(matches) {
	case 0:
		available := make([]string, 0, len(actions))
		for _, act := range actions {
			available = append(available, act.ID().Term)
		}
		if len(available) == 0 {
			return nil, fmt.Errorf("no actions applicable to %s", id)
		}
		return nil, fmt.Errorf("action %q is not applicable to %s (available: %s)", raw, id, strings.Join(available, ", "))
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, 0, len(matches))
		for _, act := range matches {
			ids = append(ids, act.ID().String())
		}
		return nil, fmt.Errorf("action %q is ambiguous, use a full identifier: %s", raw, strings.Join(ids, ", "))
	}
}

func buildSchema(a *bootstrap.App, kindID string, mixinIDs []string) (*category.Schema, error) {
	kind, err := lookupKind(a, kindID)
	if err != nil {
		return nil, err
	}
	mixins := make([]*category.Mixin, 0, len(mixinIDs))
	for _, raw := range mixinIDs {
		m, err := lookupMixin(a, raw)
		if err != nil {
			return nil, err
		}
		mixins = append(mixins, m)
	}
	return category.NewSchema(kind, mixins)
}

func lookupKind(a *bootstrap.App, raw string) (*category.Kind, error) {
	id, err := category.ParseIdentifier(raw)
	if err != nil {
		return nil, err
	}
	def, err := a.Catalogue.Lookup(id)
	if err != nil {
		return nil, err
	}
	kind, ok := def.(*category.Kind)
	if !ok {
		return nil, fmt.Errorf("%s is not a kind", raw)
	}
	return kind, nil
}

func lookupMixin(a *bootstrap.App, raw string) (*category.Mixin, error) {
	id, err := category.ParseIdentifier(raw)
	if err != nil {
		return nil, err
	}
	def, err := a.Catalogue.Lookup(id)
	if err != nil {
		return nil, err
	}
	mixin, ok := def.(*category.Mixin)
	if !ok {
		return nil, fmt.Errorf("%s is not a mixin", raw)
	}
	return mixin, nil
}

// parseAttrPairs turns name=value flags into typed attribute values.
// Values parse per the schema's attribute type; names the schema does
// not know stay strings and fail validation later with a precise error.
func parseAttrPairs(schema *category.Schema, pairs []string) (map[string]any, error) {
	attrs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid attribute %q, expected name=value", pair)
		}

		if schema != nil {
			if attr, found := schema.Lookup(name); found {
				value, err := category.ParseValue(attr.Type, raw)
				if err != nil {
					return nil, fmt.Errorf("attribute %q: %w", name, err)
				}
				attrs[name] = value
				continue
			}
		}
		attrs[name] = raw
	}
	return attrs, nil
}

// parseActionParams types name=value flags against the action's
// declared parameters.
func parseActionParams(action *category.Action, pairs []string) (map[string]any, error) {
	attrs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}

		typed := false
		for _, attr := range action.Attributes {
			if attr.Name == name {
				value, err := category.ParseValue(attr.Type, raw)
				if err != nil {
					return nil, fmt.Errorf("parameter %q: %w", name, err)
				}
				attrs[name] = value
				typed = true
				break
			}
		}
		if !typed {
			attrs[name] = raw
		}
	}
	return attrs, nil
}
