package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/versedb/versedb/internal/storage"
)

func newSettingsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write typed settings",
	}
	cmd.AddCommand(newSettingsGetCommand(opts), newSettingsSetCommand(opts))
	return cmd
}

func newSettingsGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting and its type tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, closer, err := openManager(opts)
			if err != nil {
				return err
			}
			defer closer()
			defer func() { _ = mgr.Close() }()

			store, err := mgr.Acquire(cmd.Context())
			if err != nil {
				return err
			}
			v, ok, err := store.Setting(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("setting %q not set", args[0])
			}
			switch v.Type {
			case storage.SettingBool:
				b, _ := v.AsBool()
				fmt.Printf("%v (bool)\n", b)
			case storage.SettingInt:
				n, _ := v.AsInt()
				fmt.Printf("%d (int)\n", n)
			case storage.SettingDouble:
				f, _ := v.AsDouble()
				fmt.Printf("%g (double)\n", f)
			default:
				s, _ := v.AsString()
				fmt.Printf("%s (string)\n", s)
			}
			return nil
		},
	}
}

func newSettingsSetCommand(opts *rootOptions) *cobra.Command {
	var typeTag string

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting under an explicit type tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseSettingValue(typeTag, args[1])
			if err != nil {
				return err
			}

			mgr, closer, err := openManager(opts)
			if err != nil {
				return err
			}
			defer closer()
			defer func() { _ = mgr.Close() }()

			store, err := mgr.Acquire(cmd.Context())
			if err != nil {
				return err
			}
			return store.SetSetting(cmd.Context(), args[0], value)
		},
	}
	cmd.Flags().StringVarP(&typeTag, "type", "t", "string", "value type: bool, int, double or string")
	return cmd
}

func parseSettingValue(typeTag, raw string) (storage.SettingValue, error) {
	switch storage.SettingType(typeTag) {
	case storage.SettingBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return storage.SettingValue{}, fmt.Errorf("invalid bool %q: %w", raw, err)
		}
		return storage.BoolValue(b), nil
	case storage.SettingInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return storage.SettingValue{}, fmt.Errorf("invalid int %q: %w", raw, err)
		}
		return storage.IntValue(n), nil
	case storage.SettingDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return storage.SettingValue{}, fmt.Errorf("invalid double %q: %w", raw, err)
		}
		return storage.DoubleValue(f), nil
	case storage.SettingString:
		return storage.StringValue(raw), nil
	default:
		return storage.SettingValue{}, fmt.Errorf("unknown type tag %q", typeTag)
	}
}
