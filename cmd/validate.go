package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/victornm/grammarquiz/internal/bank"
	"github.com/victornm/grammarquiz/internal/catalog"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the question bank and resource catalog files",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		b, err := bank.Load(c.Data.BankPath)
		if err != nil {
			return fmt.Errorf("question bank: %w", err)
		}

		cat, err := catalog.Load(c.Data.CatalogPath)
		if err != nil {
			return fmt.Errorf("resource catalog: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d questions in %d topics\n", c.Data.BankPath, b.Len(), len(b.Topics()))
		fmt.Fprintf(out, "%s: %d topics\n", c.Data.CatalogPath, cat.Len())

		var missing []string
		for _, n := range b.Topics() {
			qs := b.Topic(n)
			if len(qs) == 0 {
				continue
			}
			if _, ok := cat.Entry(qs[0].GrammarTopic); !ok {
				missing = append(missing, qs[0].GrammarTopic)
			}
		}

		slices.Sort(missing)
		for _, t := range missing {
			fmt.Fprintf(out, "warning: no resources for topic %q\n", t)
		}

		if c.Quiz.TopicCount > len(b.Topics()) {
			fmt.Fprintf(out, "warning: quiz wants %d topics, bank has %d\n", c.Quiz.TopicCount, len(b.Topics()))
		}

		return nil
	},
}
