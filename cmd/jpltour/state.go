package main

import (
	"fmt"
	"strconv"

	"jpltour/pkg/reserve"
	"jpltour/pkg/state"

	"github.com/spf13/cobra"
)

func newStateCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the persisted state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			st, err := state.Load(cfg.State.Path)
			if err != nil {
				return err
			}
			data, err := state.Marshal(st, cfg.State.Path)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "continue true|false",
		Short: "Turn pressing Reserve on later runs on or off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("expected true or false, got %q", args[0])
			}
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			st, err := state.Load(cfg.State.Path)
			if err != nil {
				return err
			}
			if _, changed, err := st.SetContinuePressingReserve(v, reserve.TitleContinue); err != nil {
				return err
			} else if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already %t\n", state.ContinuePressingReserve, v)
				return nil
			}
			if err := state.Save(cfg.State.Path, st); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s set to %t\n", state.ContinuePressingReserve, v)
			return nil
		},
	})
	return cmd
}
