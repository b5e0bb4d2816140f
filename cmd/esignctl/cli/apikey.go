package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"esign.backend/internal/domain/entities"
	"esign.backend/internal/domain/repositories"
	"esign.backend/pkg/utils"
)

func newApiKeyCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apikey",
		Aliases: []string{"key"},
		Short:   "Manage API keys",
		Long:    "Create, list, revoke, regenerate, and delete the API keys dealer and customer integrations sign with.",
	}

	cmd.AddCommand(newApiKeyCreateCmd(s))
	cmd.AddCommand(newApiKeyListCmd(s))
	cmd.AddCommand(newApiKeyRevokeCmd(s))
	cmd.AddCommand(newApiKeyRegenerateCmd(s))
	cmd.AddCommand(newApiKeyDeleteCmd(s))

	return cmd
}

func newApiKeyCreateCmd(s *session) *cobra.Command {
	var (
		name       string
		keyType    string
		entityKind string
		entityID   string
		perms      []string
		expiresIn  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Generate a new API key bound to an entity. The raw key is shown once and cannot be retrieved again.",
		Example: `  esignctl apikey create --name "Acme Motors" --type dealer --entity-kind Dealer --entity-id dlr_42 --perm createSignatures
  esignctl apikey create --name "Deal service" --type system --entity-kind Deal --entity-id all --expires-in 2160h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			permissions, err := parsePermissions(perms)
			if err != nil {
				return err
			}
			input := &entities.CreateApiKeyInput{
				Name:        name,
				Type:        entities.ApiKeyType(strings.ToLower(keyType)),
				Entity:      entities.EntityRef{Kind: entities.EntityKind(entityKind), ID: entityID},
				Permissions: permissions,
			}
			if expiresIn > 0 {
				at := time.Now().UTC().Add(expiresIn)
				input.ExpiresAt = &at
			}

			_, rt, err := s.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			created, err := rt.apiKeys.CreateApiKey(cmd.Context(), uuid.Nil, input)
			if err != nil {
				return failed("create api key", err)
			}

			out := cmd.OutOrStdout()
			if s.jsonOutput() {
				return s.printJSON(out, created)
			}
			fmt.Fprintln(out, "API key created:")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  ID:     %s\n", created.ApiKey.ID)
			fmt.Fprintf(out, "  Key:    %s\n", created.RawKey)
			fmt.Fprintf(out, "  Type:   %s\n", created.ApiKey.Type)
			fmt.Fprintf(out, "  Entity: %s/%s\n", created.ApiKey.Entity.Kind, created.ApiKey.Entity.ID)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  Save this key now - it cannot be retrieved again.")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "human-readable name (required)")
	cmd.Flags().StringVar(&keyType, "type", "", "internal, customer, dealer, or system (required)")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "User, Dealer, or Deal (required)")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "id of the entity the key acts for (required)")
	cmd.Flags().StringSliceVar(&perms, "perm", nil, "permissions: signAgreements, viewDocuments, createSignatures")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "expire the key after this long (default never)")
	for _, required := range []string{"name", "type", "entity-kind", "entity-id"} {
		_ = cmd.MarkFlagRequired(required)
	}

	return cmd
}

func parsePermissions(values []string) (entities.Permissions, error) {
	var p entities.Permissions
	for _, raw := range values {
		switch entities.Permission(strings.TrimSpace(raw)) {
		case entities.PermissionSignAgreements:
			p.SignAgreements = true
		case entities.PermissionViewDocuments:
			p.ViewDocuments = true
		case entities.PermissionCreateSignatures:
			p.CreateSignatures = true
		case "":
		default:
			return p, fmt.Errorf("unknown permission %q", raw)
		}
	}
	return p, nil
}

func newApiKeyListCmd(s *session) *cobra.Command {
	var (
		keyType    string
		entityKind string
		entityID   string
		activeOnly bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, rt, err := s.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			keys, _, err := rt.apiKeys.ListApiKeys(cmd.Context(), repositories.ApiKeyFilter{
				Type:       entities.ApiKeyType(strings.ToLower(keyType)),
				EntityKind: entities.EntityKind(entityKind),
				EntityID:   entityID,
				ActiveOnly: activeOnly,
			}, utils.PaginationParams{Page: 1})
			if err != nil {
				return failed("list api keys", err)
			}

			out := cmd.OutOrStdout()
			if s.jsonOutput() {
				return s.printJSON(out, keys)
			}
			if len(keys) == 0 {
				fmt.Fprintln(out, "No API keys found. Use 'esignctl apikey create' to create one.")
				return nil
			}
			return printKeyTable(out, keys)
		},
	}

	cmd.Flags().StringVar(&keyType, "type", "", "filter by key type")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "filter by entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "filter by entity id")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active keys")

	return cmd
}

func printKeyTable(out io.Writer, keys []*entities.ApiKey) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPREFIX\tNAME\tTYPE\tENTITY\tACTIVE\tUSES")
	for _, k := range keys {
		active := "yes"
		if !k.IsActive {
			active = "no"
		} else if k.IsExpired(time.Now()) {
			active = "expired"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s/%s\t%s\t%d\n",
			k.ID, k.KeyPrefix, k.Name, k.Type, k.Entity.Kind, k.Entity.ID, active, k.UsageCount)
	}
	return tw.Flush()
}

func newApiKeyRevokeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Deactivate an API key, keeping the row for the audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseKeyID(args[0])
			if err != nil {
				return err
			}
			_, rt, err := s.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.apiKeys.RevokeApiKey(cmd.Context(), id); err != nil {
				return failed("revoke api key", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked API key %s\n", id)
			return nil
		},
	}
}

func newApiKeyRegenerateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <id>",
		Short: "Issue a new raw key for an existing API key",
		Long:  "Replace the secret of an API key. The previous raw key stops authenticating immediately.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseKeyID(args[0])
			if err != nil {
				return err
			}
			_, rt, err := s.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			regenerated, err := rt.apiKeys.RegenerateApiKey(cmd.Context(), id)
			if err != nil {
				return failed("regenerate api key", err)
			}
			out := cmd.OutOrStdout()
			if s.jsonOutput() {
				return s.printJSON(out, regenerated)
			}
			fmt.Fprintf(out, "New key for %s: %s\n", id, regenerated.RawKey)
			return nil
		},
	}
}

func newApiKeyDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseKeyID(args[0])
			if err != nil {
				return err
			}
			_, rt, err := s.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.apiKeys.DeleteApiKey(cmd.Context(), id); err != nil {
				return failed("delete api key", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted API key %s\n", id)
			return nil
		},
	}
}

func parseKeyID(raw string) (uuid.UUID, error) {
	id, ok := utils.ParseUUID(raw)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid api key id %q", raw)
	}
	return id, nil
}
