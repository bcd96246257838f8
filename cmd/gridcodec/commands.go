// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// commands.go — subcommands.

package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AndrewDonelson/gridcodec"
)

func newDumpCommand(a *app) *cobra.Command {
	var showHandles bool
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Decode every value in a record file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.decoder(args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			for d.More() {
				at := d.Position()
				v, err := d.DecodeNext()
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "@%d ", at)
				render(a.out, v)
			}
			if showHandles {
				fmt.Fprintf(a.out, "handles: %d\n", len(d.HandledObjects()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showHandles, "handles", false, "print the handle table size")
	return cmd
}

func newFieldCommand(a *app) *cobra.Command {
	var rangeOnly, noFallback bool
	cmd := &cobra.Command{
		Use:   "field FILE NAME",
		Short: "Read one field of a record through its footer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.decoder(args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			if rangeOnly {
				r, err := d.FieldRange(args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%d %d\n", r.Start, r.Len)
				return nil
			}
			v, err := d.ReadField(args[1])
			if errors.Is(err, gridcodec.ErrUnsupportedFooter) && !noFallback {
				a.logger.Info("footer lookup unavailable; decoding the whole record", "reason", err)
				var obj any
				if obj, err = d.DecodeNext(); err == nil {
					v, err = gridcodec.FieldOf(obj, args[1])
				}
			}
			if err != nil {
				return err
			}
			render(a.out, v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&rangeOnly, "range", false, "print the field's byte range instead of its value")
	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "fail instead of decoding the whole record")
	return cmd
}

func newHasCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "has FILE NAME",
		Short: "Report whether a record's footer lists a field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.decoder(args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			ok, err := d.HasField(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, ok)
			return nil
		},
	}
}

func newTypesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the types loaded from the schema file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTRATEGY\tCHECKSUM\tFIELDS\tFOOTER")
			for _, d := range a.registry.Descriptors() {
				footer := "-"
				if md, ok := a.registry.FooterMetadata(d.TypeID); ok {
					footer = strconv.Itoa(len(md))
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n", d.TypeID, d.Name, d.Strategy, d.Checksum, len(d.Fields()), footer)
			}
			return tw.Flush()
		},
	}
}

func newMappingsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Manage the shared type id to class name mappings",
	}
	need := func() error {
		if a.mappings == nil {
			return fmt.Errorf("%w: --redis or --postgres is required", gridcodec.ErrInvalidConfig)
		}
		return nil
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print every shared mapping",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := need(); err != nil {
					return err
				}
				all, err := a.mappings.All(cmd.Context())
				if err != nil {
					return err
				}
				ids := make([]int32, 0, len(all))
				for id := range all {
					ids = append(ids, id)
				}
				sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
				for _, id := range ids {
					fmt.Fprintf(a.out, "%d\t%s\n", id, all[id])
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "publish",
			Short: "Register the schema file's types with the shared tiers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := need(); err != nil {
					return err
				}
				return a.registry.Publish(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "import",
			Short: "Bulk-load the schema file's types into an empty Postgres table",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := need(); err != nil {
					return err
				}
				in := make(map[int32]string)
				for _, d := range a.registry.Descriptors() {
					in[d.TypeID] = d.Name
				}
				n, err := a.mappings.Import(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "imported %d\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "forget ID",
			Short: "Remove one mapping from every tier",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := need(); err != nil {
					return err
				}
				id, err := strconv.ParseInt(args[0], 10, 32)
				if err != nil {
					return err
				}
				return a.mappings.Forget(cmd.Context(), int32(id))
			},
		},
	)
	return cmd
}

func newRecordCommand(a *app) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Store and query raw records in Redis",
	}
	store := func() (*gridcodec.RecordStore, error) {
		client, err := a.redisClient()
		if err != nil {
			return nil, err
		}
		opts := gridcodec.RecordStoreOptions{Client: client, KeyPrefix: a.opts.keyPrefix, TTL: ttl, Decoder: a.config()}
		return gridcodec.NewRecordStore(opts)
	}
	put := &cobra.Command{
		Use:   "put CACHE KEY FILE",
		Short: "Upload a record file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[2])
			if err != nil {
				return err
			}
			return s.Put(cmd.Context(), args[0], args[1], data)
		},
	}
	get := &cobra.Command{
		Use:   "get CACHE KEY",
		Short: "Decode a stored record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store()
			if err != nil {
				return err
			}
			v, err := s.Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			render(a.out, v)
			return nil
		},
	}
	field := &cobra.Command{
		Use:   "field CACHE KEY NAME",
		Short: "Read one field of a stored record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store()
			if err != nil {
				return err
			}
			v, err := s.Field(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			render(a.out, v)
			return nil
		},
	}
	put.Flags().DurationVar(&ttl, "ttl", 0, "expire the record after this long")
	cmd.AddCommand(put, get, field)
	return cmd
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, gridcodec.Version())
			return nil
		},
	}
}
