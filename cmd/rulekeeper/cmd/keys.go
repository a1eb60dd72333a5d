package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/rulekeeper/internal/core/auth"
	"github.com/solatis/rulekeeper/internal/core/config"
	"github.com/solatis/rulekeeper/internal/core/store"
	"github.com/solatis/rulekeeper/internal/types"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a new API key; the key is printed once and never stored",
	RunE:  runKeysCreate,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a tenant's API keys",
	RunE:  runKeysList,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysRevoke,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd, keysListCmd, keysRevokeCmd)
	keysCmd.PersistentFlags().String("tenant", auth.DefaultTenant, "tenant id")
	keysCreateCmd.Flags().String("name", "", "key name")
	keysCreateCmd.Flags().String("secret-id", "", "HMAC secret to sign with (required when several are configured)")
}

// pickSecret chooses the signing secret: the named one, or the only one.
func pickSecret(secrets map[string][]byte, secretID string) (string, []byte, error) {
	if secretID != "" {
		secret, ok := secrets[secretID]
		if !ok {
			return "", nil, fmt.Errorf("secret id %s is not configured", secretID)
		}
		return secretID, secret, nil
	}

	ids := make([]string, 0, len(secrets))
	for id := range secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	switch len(ids) {
	case 0:
		return "", nil, fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET environment variable)", config.EnvPrefix)
	case 1:
		return ids[0], secrets[ids[0]], nil
	default:
		return "", nil, fmt.Errorf("%d HMAC secrets configured, choose one with --secret-id (%v)", len(ids), ids)
	}
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	tenant, _ := cmd.Flags().GetString("tenant")
	name, _ := cmd.Flags().GetString("name")
	secretFlag, _ := cmd.Flags().GetString("secret-id")

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	secretID, secret, err := pickSecret(secrets, secretFlag)
	if err != nil {
		return err
	}

	database, queries, err := openQueries(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	key, hash, err := auth.GenerateAPIKey(secretID, secret)
	if err != nil {
		return err
	}
	id, err := store.New(queries).CreateAPIKey(cmd.Context(), tenant, name, secretID, hash)
	if err != nil {
		return err
	}

	logger.Info("api key created", "key_id", id, "tenant", tenant)
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

func runKeysList(cmd *cobra.Command, args []string) error {
	tenant, _ := cmd.Flags().GetString("tenant")

	database, queries, err := openQueries(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	keys, err := store.New(queries).ListAPIKeys(cmd.Context(), tenant)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tLAST USED\tREVOKED")
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", k.ID, k.Name,
			formatMillis(k.CreatedAt, true), formatMillis(k.LastUsedAt.Int64, k.LastUsedAt.Valid), k.Revoked())
	}
	return w.Flush()
}

func runKeysRevoke(cmd *cobra.Command, args []string) error {
	tenant, _ := cmd.Flags().GetString("tenant")

	database, queries, err := openQueries(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()

	if err := store.New(queries).RevokeAPIKey(cmd.Context(), tenant, types.APIKeyID(args[0])); err != nil {
		return err
	}
	logger.Info("api key revoked", "key_id", args[0], "tenant", tenant)
	return nil
}

func formatMillis(ms int64, valid bool) string {
	if !valid {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
