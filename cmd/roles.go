package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-roles/internal/catalog"
	"github.com/spigell/resume-roles/internal/logger"
)

const rolePreviewLength = 80

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the roles of the catalog with the text used for matching",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		config, err := getConfig()
		if err != nil {
			zlog.Fatal("getting a config", zap.Error(err))
		}

		c, err := loadCatalog(config)
		if err != nil {
			zlog.Fatal("loading the catalog", zap.Error(err), zap.String("path", config.Catalog.Path))
		}

		if err := listRoles(os.Stdout, c); err != nil {
			zlog.Fatal("listing roles", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(rolesCmd)
}

func listRoles(w io.Writer, c *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tROLE\t%s\n", string(c.Field))
	for _, role := range c.Roles {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", role.Position+1, role.Name, logger.TruncateForLog(strings.Join(strings.Fields(c.MatchText(role)), " "), rolePreviewLength))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%d roles\n", c.Len())
	return err
}
