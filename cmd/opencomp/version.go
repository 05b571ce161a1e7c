package main

import (
	"fmt"
	"runtime"

	semver "github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
)

// Version is the kernel release version.
var Version = semver.MustParse("0.1.0")

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the OpenComp version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("OpenComp %s (%s, %s/%s)\n",
			Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
