package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/NebulousLabs/fastrand"
	"github.com/spf13/cobra"

	"github.com/rivine-labs/walletstore/wallet"
)

func (cmds *commands) parseChainMagic() ([4]byte, error) {
	var out [4]byte
	raw, err := hex.DecodeString(cmds.chainMagic)
	if err != nil || len(raw) != 4 {
		return out, fmt.Errorf("chain-magic must be 4 bytes of hex, got %q", cmds.chainMagic)
	}
	copy(out[:], raw)
	return out, nil
}

func (cmds *commands) config() (wallet.Config, error) {
	magic, err := cmds.parseChainMagic()
	if err != nil {
		return wallet.Config{}, err
	}
	return wallet.Config{
		Path:       cmds.walletPath,
		ChainMagic: magic,
		Now:        time.Now,
	}, nil
}

func (cmds *commands) openWallet() (*wallet.Wallet, error) {
	cfg, err := cmds.config()
	if err != nil {
		return nil, err
	}
	return wallet.Open(cfg)
}

func (cmds *commands) createCmd() *cobra.Command {
	var poolSize int
	var passphrase string
	var label string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "create a new wallet file with a fresh random seed",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := cmds.config()
			if err != nil {
				return err
			}

			var seed, chainCode [32]byte
			fastrand.Read(seed[:])
			fastrand.Read(chainCode[:])

			opts := wallet.CreateOptions{
				Seed:                   seed,
				ChainCode:              chainCode,
				ShortLabel:             label,
				PoolSize:               poolSize,
				CalibrateTargetSeconds: 0.25,
				CalibrateMaxMemBytes:   1 << 26,
			}
			if passphrase != "" {
				opts.Passphrase = []byte(passphrase)
			}

			w, err := wallet.Create(cfg, opts)
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Println(w.String())
			return nil
		},
	}
	cmd.Flags().IntVar(&poolSize, "pool-size", 20, "number of addresses to precompute")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "encrypt the wallet with this passphrase")
	cmd.Flags().StringVar(&label, "label", "", "short wallet label")
	return cmd
}

func (cmds *commands) unlockCmd() *cobra.Command {
	var passphrase string
	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "unlock an encrypted wallet",
		RunE: func(*cobra.Command, []string) error {
			w, err := cmds.openWallet()
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.Unlock([]byte(passphrase)); err != nil {
				return err
			}
			fmt.Println("unlocked")
			return nil
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "wallet passphrase")
	return cmd
}

func (cmds *commands) lockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "lock an unlocked wallet",
		RunE: func(*cobra.Command, []string) error {
			w, err := cmds.openWallet()
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.Lock(); err != nil {
				return err
			}
			fmt.Println("locked")
			return nil
		},
	}
}

func (cmds *commands) addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "print the next unused address, claiming it",
		RunE: func(*cobra.Command, []string) error {
			w, err := cmds.openWallet()
			if err != nil {
				return err
			}
			defer w.Close()
			addr, err := w.GetNextUnused()
			if err != nil {
				return err
			}
			fmt.Printf("%x\n", addr.Hash160)
			return nil
		},
	}
}

func (cmds *commands) importCmd() *cobra.Command {
	var privHex string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "import a raw private key as a new address",
		RunE: func(*cobra.Command, []string) error {
			w, err := cmds.openWallet()
			if err != nil {
				return err
			}
			defer w.Close()

			raw, err := hex.DecodeString(privHex)
			if err != nil || len(raw) != 32 {
				return fmt.Errorf("--priv must be 32 bytes of hex")
			}
			var priv [32]byte
			copy(priv[:], raw)

			h160, err := w.ImportPrivateKey(wallet.ImportOptions{PrivateKey: priv})
			if err != nil {
				return err
			}
			fmt.Printf("%x\n", h160)
			return nil
		},
	}
	cmd.Flags().StringVar(&privHex, "priv", "", "32-byte private key, hex encoded")
	return cmd
}
