// Command walletstore is a minimal driver exercising the wallet library
// end to end: create, unlock, lock, address, and import subcommands (there
// is no sign subcommand), matching the teacher-lineage CLI's cobra-based shape
// (cmd/rivined, cmd/rivinec) without its daemon/RPC machinery, which is
// out of scope for this library.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type commands struct {
	walletPath string
	chainMagic string
}

func main() {
	cmds := &commands{}

	root := &cobra.Command{
		Use:   "walletstore",
		Short: "Deterministic wallet store CLI",
	}
	root.PersistentFlags().StringVar(&cmds.walletPath, "wallet", "wallet.dat", "path to the wallet file")
	root.PersistentFlags().StringVar(&cmds.chainMagic, "chain-magic", "f9beb4d9", "4-byte hex chain magic")

	root.AddCommand(
		cmds.createCmd(),
		cmds.unlockCmd(),
		cmds.lockCmd(),
		cmds.addressCmd(),
		cmds.importCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "walletstore: ", err)
		os.Exit(1)
	}
}
