package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-roles/internal/extract"
	"github.com/spigell/resume-roles/internal/logger"
	"github.com/spigell/resume-roles/internal/nlp"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Print the normalized tokens of a document or text",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		text, _ := cmd.Flags().GetString("text")
		if err := normalize(os.Stdout, args, text, zlog); err != nil {
			zlog.Fatal("normalizing", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().StringP("text", "t", "", "text to normalize instead of a file")
}

func normalize(w io.Writer, args []string, text string, zlog *zap.Logger) error {
	document, err := readDocument(args)
	if err != nil {
		return err
	}

	if document != nil {
		res := extract.New(zlog).Inspect(document)
		if res.Empty() {
			return fmt.Errorf("no text extracted from %s document: %w", res.Kind, res.Err)
		}
		text = res.Text
	}

	if strings.TrimSpace(text) == "" {
		return errors.New("nothing to normalize: pass a file or --text")
	}

	tokens := nlp.NewNormalizer(nlp.English()).Normalize(text)
	zlog.Debug("text normalized", zap.Int("tokens", len(tokens)))

	_, err = fmt.Fprintln(w, nlp.Join(tokens))
	return err
}
