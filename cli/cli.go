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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/provideplatform/counter/bootstrap"
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/config"
	"github.com/provideplatform/counter/counter"
	"github.com/provideplatform/counter/state"
	"github.com/provideplatform/counter/wallet"
	zkp "github.com/provideplatform/counter/zkp/providers"
	"github.com/pterm/pterm"
)

const deployOrJoinQuestion = `
You can do one of the following:
  1. Deploy a new counter contract
  2. Join an existing counter contract
  3. Exit
Which would you like to do? `

const mainLoopQuestion = `
You can do one of the following:
  1. Increment
  2. Display current counter value
  3. Register an identity credential
  4. Check age verification
  5. Exit
Which would you like to do? `

const walletLoopQuestion = `
You can do one of the following:
  1. Build a fresh wallet
  2. Build wallet from a seed
  3. Exit
Which would you like to do? `

const defaultFundsInterval = 5 * time.Second

// errExit is returned by prompts once the user chose to exit or the input ended
var errExit = errors.New("exit")

// CLI runs the interactive counter menus over a line-oriented reader and writer
type CLI struct {
	in  *bufio.Scanner
	out io.Writer

	info    *pterm.PrefixPrinter
	success *pterm.PrefixPrinter
	warning *pterm.PrefixPrinter
	failure *pterm.PrefixPrinter

	// FundsInterval is the wallet balance polling interval
	FundsInterval time.Duration
	// Now is the clock used for age verification
	Now func() time.Time
}

// New returns a CLI reading answers from in and printing to out
func New(in io.Reader, out io.Writer) *CLI {
	return &CLI{
		in:            bufio.NewScanner(in),
		out:           out,
		info:          pterm.Info.WithWriter(out),
		success:       pterm.Success.WithWriter(out),
		warning:       pterm.Warning.WithWriter(out),
		failure:       pterm.Error.WithWriter(out),
		FundsInterval: defaultFundsInterval,
		Now:           time.Now,
	}
}

// Run resolves the configuration, builds a wallet and providers, then runs the contract menus
func (c *CLI) Run(ctx context.Context, opts bootstrap.Options, walletURL string) error {
	cfg, err := bootstrap.ResolveConfig(opts)
	if err != nil {
		return err
	}
	if walletURL != "" {
		cfg.Wallet = walletURL
	}

	if !opts.Simulate && opts.Wallet == nil {
		w, err := c.buildWallet(ctx, cfg)
		if errors.Is(err, errExit) {
			c.info.Println("Exiting...")
			return nil
		}
		if err != nil {
			return err
		}
		opts.Wallet = w
	}

	opts.ProofCallback = c.proofProgress
	rt, err := bootstrap.Start(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	err = c.mainLoop(ctx, rt)
	if errors.Is(err, errExit) {
		c.info.Println("Exiting...")
		return nil
	}
	if err != nil {
		c.failure.Printfln("Found error '%s'", err.Error())
		c.info.Println("Exiting...")
	}
	return err
}

func (c *CLI) prompt(question string) (string, error) {
	fmt.Fprint(c.out, question)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", errExit
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *CLI) buildWallet(ctx context.Context, cfg *config.Config) (wallet.Wallet, error) {
	if cfg.Profile == config.ProfileStandalone {
		return c.buildWalletAndWaitForFunds(ctx, cfg, wallet.GenesisMintWalletSeed)
	}

	for {
		choice, err := c.prompt(walletLoopQuestion)
		if err != nil {
			return nil, err
		}

		switch choice {
		case "1":
			return c.buildWalletAndWaitForFunds(ctx, cfg, "")
		case "2":
			seed, err := c.prompt("Enter your wallet seed: ")
			if err != nil {
				return nil, err
			}
			return c.buildWalletAndWaitForFunds(ctx, cfg, seed)
		case "3":
			return nil, errExit
		default:
			c.failure.Printfln("Invalid choice: %s", choice)
		}
	}
}

func (c *CLI) buildWalletAndWaitForFunds(ctx context.Context, cfg *config.Config, seed string) (wallet.Wallet, error) {
	w := wallet.NewRemoteWallet(cfg.Wallet)
	s, err := w.Restore(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to build wallet; %s", err.Error())
	}

	c.info.Printfln("Your wallet address is: %s", s.Address)
	if s.Balance == 0 {
		c.info.Println("Waiting to receive tokens...")
	}

	s, err = wallet.WaitForFunds(ctx, w, c.FundsInterval)
	if err != nil {
		return nil, err
	}
	c.success.Printfln("Your wallet balance is: %d", s.Balance)
	return w, nil
}

func (c *CLI) deployOrJoin(ctx context.Context, rt *bootstrap.Runtime) (*counter.API, error) {
	for {
		choice, err := c.prompt(deployOrJoinQuestion)
		if err != nil {
			return nil, err
		}

		switch choice {
		case "1":
			c.info.Println("Deploying counter contract...")
			api, err := counter.Deploy(ctx, rt.Contract, rt.Providers, state.NewPrivateState())
			if err != nil {
				return nil, err
			}
			c.success.Printfln("Deployed contract at address: %s", api.Address())
			return api, nil
		case "2":
			address, err := c.prompt("What is the contract address (in hex)? ")
			if err != nil {
				return nil, err
			}
			api, err := counter.Connect(ctx, rt.Contract, rt.Providers, address)
			if err != nil {
				return nil, err
			}
			c.success.Printfln("Joined contract at address: %s", api.Address())
			return api, nil
		case "3":
			return nil, errExit
		default:
			c.failure.Printfln("Invalid choice: %s", choice)
		}
	}
}

func (c *CLI) mainLoop(ctx context.Context, rt *bootstrap.Runtime) error {
	api, err := c.deployOrJoin(ctx, rt)
	if err != nil {
		return err
	}
	defer api.Close()

	for {
		choice, err := c.prompt(mainLoopQuestion)
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = c.increment(ctx, api)
		case "2":
			err = c.displayCounterValue(ctx, api)
		case "3":
			err = c.registerCredential(ctx, api)
		case "4":
			err = c.checkAge(ctx, api)
		case "5":
			return errExit
		default:
			c.failure.Printfln("Invalid choice: %s", choice)
		}

		if errors.Is(err, errExit) {
			return err
		}
		if err != nil {
			c.failure.Println(err.Error())
		}
	}
}

func (c *CLI) increment(ctx context.Context, api *counter.API) error {
	c.info.Println("Incrementing...")
	tx, err := api.Increment(ctx, counter.IncrementWithTxInfo)
	if err != nil {
		return err
	}
	c.success.Printfln("Transaction %s added in block %d", tx.TxID, tx.BlockHeight)
	return nil
}

func (c *CLI) displayCounterValue(ctx context.Context, api *counter.API) error {
	info, err := api.GetCounterInfo(ctx)
	if err != nil {
		return err
	}
	if !info.Found {
		c.warning.Printfln("There is no counter contract deployed at %s.", info.Address)
		return nil
	}
	c.info.Printfln("Current counter value: %d", info.Value)
	return nil
}

func (c *CLI) registerCredential(ctx context.Context, api *counter.API) error {
	firstName, err := c.prompt("First name: ")
	if err != nil {
		return err
	}
	lastName, err := c.prompt("Last name: ")
	if err != nil {
		return err
	}
	birthDate, err := c.prompt("Birth date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}

	birth, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		return fmt.Errorf("invalid birth date %q; expected YYYY-MM-DD", birthDate)
	}

	subject, err := state.NewCredentialSubject(firstName, lastName, birth)
	if err != nil {
		return err
	}
	if err := api.SetCredentialSubject(ctx, subject); err != nil {
		return err
	}
	c.success.Printfln("Registered credential for %s %s", firstName, lastName)
	return nil
}

func (c *CLI) checkAge(ctx context.Context, api *counter.API) error {
	verified, err := api.IsUserVerified(ctx, c.Now())
	if common.IsKind(err, common.ErrorKindWitness) {
		c.warning.Println("No identity credential registered; choose option 3 first.")
		return nil
	}
	if err != nil {
		return err
	}

	if verified {
		c.success.Printfln("You are at least %d years old.", counter.AgeOfMajority)
	} else {
		c.warning.Printfln("You are not yet %d years old.", counter.AgeOfMajority)
	}
	return nil
}

func (c *CLI) proofProgress(event zkp.ProofEvent, address state.ContractAddress, circuitID string, err error) {
	switch {
	case event == zkp.ProveTxStarted:
		common.Log.Debugf("proving %s transaction for %s", circuitID, address)
	case err != nil:
		common.Log.Warningf("failed to prove %s transaction for %s; %s", circuitID, address, err.Error())
	default:
		common.Log.Debugf("proved %s transaction for %s", circuitID, address)
	}
}
