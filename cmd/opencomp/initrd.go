package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencomp-os/opencomp/internal/tarfs"
)

var initrdCmd = &cobra.Command{
	Use:   "initrd",
	Short: "Inspect an initrd archive",
}

var initrdListCmd = &cobra.Command{
	Use:   "list FILE",
	Short: "List the files in an initrd archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := tarfs.New()
		n, err := fs.LoadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%-32s %10s\n", "NAME", "SIZE")
		for i := 0; i < n; i++ {
			f, ok := fs.FileInfo(i)
			if !ok {
				continue
			}
			if f.IsDir {
				fmt.Printf("%-32s %10s\n", f.Name, "<dir>")
			} else {
				fmt.Printf("%-32s %10d\n", f.Name, f.Size)
			}
		}
		return nil
	},
}

var initrdCatCmd = &cobra.Command{
	Use:   "cat FILE NAME",
	Short: "Print one file from an initrd archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := tarfs.New()
		if _, err := fs.LoadFile(args[0]); err != nil {
			return err
		}
		data, ok := fs.ReadFile(args[1])
		if !ok {
			return fmt.Errorf("%s: no such file in archive", args[1])
		}
		_, err := os.Stdout.Write(data)
		return err
	},
}

func init() {
	initrdCmd.AddCommand(initrdListCmd)
	initrdCmd.AddCommand(initrdCatCmd)
	rootCmd.AddCommand(initrdCmd)
}
