package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"offertory/internal/core"
)

func wordsCmd() *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "words <amount>",
		Short: "Spell an amount in words using Indian numbering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := wordStyle(style)
			if err != nil {
				return err
			}
			raw := strings.TrimSpace(args[0])
			if strings.HasPrefix(raw, "-") {
				return core.ErrNegativeAmount
			}
			amount, err := core.ParseAmount(raw)
			if err != nil {
				return err
			}
			words, err := core.AmountInWords(amount, ws)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), words)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "receipt", "wording style: receipt or rupees")
	return cmd
}

func wordStyle(s string) (core.WordStyle, error) {
	switch strings.ToLower(s) {
	case "receipt", "":
		return core.ReceiptWords, nil
	case "rupees":
		return core.RupeeWords, nil
	}
	return core.WordStyle{}, fmt.Errorf("unknown style %q: use receipt or rupees", s)
}
