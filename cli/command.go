/*
 * Copyright 2017-2022 Provide Technologies Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/provideplatform/counter/bootstrap"
	"github.com/provideplatform/counter/config"
	"github.com/spf13/cobra"
)

type flags struct {
	profile   string
	simulate  bool
	walletURL string
}

// NewCommand returns the counter-cli root command bound to in and out
func NewCommand(in io.Reader, out io.Writer) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "counter-cli",
		Short: "Deploy, join and increment privacy counter contracts",
		Long: `counter-cli drives a counter contract from the terminal.

It resolves endpoints for the selected profile, builds a funded wallet,
then deploys a new counter or joins an existing one.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.ParseProfile(f.profile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return New(in, out).Run(ctx, bootstrap.Options{
				Profile:  profile,
				Simulate: f.simulate,
			}, f.walletURL)
		},
	}

	defaultProfile := string(config.ProfileStandalone)
	if p, err := bootstrap.ProfileFromEnvironment(); err == nil {
		defaultProfile = string(p)
	}

	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.Flags().StringVar(&f.profile, "profile", defaultProfile, "network profile: standalone|testnet-local|testnet-remote")
	cmd.Flags().BoolVar(&f.simulate, "simulate", bootstrap.SimulateFromEnvironment(), "run against an in-memory standalone network")
	cmd.Flags().StringVar(&f.walletURL, "wallet-url", "", "wallet service url (default from WALLET_URL or the profile)")

	return cmd
}

// Execute runs the root command against the process's stdin and stdout
func Execute() {
	if err := NewCommand(os.Stdin, os.Stdout).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
