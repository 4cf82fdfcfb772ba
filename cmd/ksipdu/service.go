/*
 * Copyright 2020 Guardtime, Inc.
 *
 * This file is part of the Guardtime client SDK.
 *
 * Licensed under the Apache License, Version 2.0 (the "License").
 * You may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *     http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES, CONDITIONS, OR OTHER LICENSES OF ANY KIND, either
 * express or implied. See the License for the specific language governing
 * permissions and limitations under the License.
 * "Guardtime" and "KSI" are trademarks or registered trademarks of
 * Guardtime, Inc., and no license to trademarks is granted; Guardtime
 * reserves and retains all trademark rights.
 */

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/guardtime/ksipdu/config"
	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/net"
	"github.com/guardtime/ksipdu/pdu"
	"github.com/guardtime/ksipdu/service"
	"github.com/guardtime/ksipdu/treebuilder"
)

// serviceOptions returns the options of a service configured by srv. Configuration pushed by the server is printed.
func (a *app) serviceOptions(srv config.Service, out io.Writer) ([]service.Option, error) {
	if err := srv.Validate(); err != nil {
		return nil, err
	}
	creds, err := srv.Credentials()
	if err != nil {
		return nil, err
	}
	return []service.Option{
		service.OptEndpoint(srv.URL, net.ClientOptRequestTimeout(a.cfg.Timeout)),
		service.OptCredentials(creds),
		service.OptProtocol(a.version),
		service.OptIdentifierProvider(a.ids),
		service.OptConfigListener(func(c *pdu.Config) error {
			_, err := fmt.Fprintf(out, "Pushed %s", c)
			return err
		}),
	}, nil
}

func (a *app) signCmd() *cobra.Command {
	var (
		imprints []string
		level    int
		maskIV   string
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Send an aggregation request to the aggregator",
		Long: `Send an aggregation request to the aggregator.

If more than one hash is given, or a blinding mask IV is set, the hashes are first aggregated into a local tree
and the root of the tree is sent at the tree height.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, lvl, err := requestHash(imprints, level, maskIV)
			if err != nil {
				return err
			}
			opts, err := a.serviceOptions(a.cfg.Aggregator, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			signer, err := service.NewSigner(opts...)
			if err != nil {
				return err
			}
			resp, err := signer.Sign(cmd.Context(), h, lvl)
			if err != nil {
				return err
			}
			if len(imprints) > 1 || maskIV != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Root hash: %s (level %d)\n", h, lvl)
			}
			return printAggrResp(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringArrayVar(&imprints, "hash", nil, "request hash as <algorithm>:<hex>, repeat for local aggregation")
	cmd.Flags().IntVar(&level, "level", 0, "aggregation tree level of every hash")
	cmd.Flags().StringVar(&maskIV, "mask-iv", "", "hex blinding mask IV, enables masking with the record index")
	_ = cmd.MarkFlagRequired("hash")
	return cmd
}

// requestHash returns the hash and the level to be signed. Multiple hashes or masking are aggregated locally.
func requestHash(imprints []string, level int, maskIV string) (hash.Imprint, int, error) {
	hashes := make([]hash.Imprint, 0, len(imprints))
	for _, s := range imprints {
		h, err := hash.ParseImprint(s)
		if err != nil {
			return nil, 0, err
		}
		hashes = append(hashes, h)
	}
	if len(hashes) == 0 {
		return nil, 0, errors.New(errors.KsiInvalidArgumentError).AppendMessage("Missing request hash.")
	}
	if len(hashes) == 1 && maskIV == "" {
		return hashes[0], level, nil
	}
	if level < 0 || level > pdu.MaxLevel {
		return nil, 0, errors.New(errors.KsiInvalidArgumentError).
			AppendMessage(fmt.Sprintf("Aggregation level must be in range [0..%d]: %d.", pdu.MaxLevel, level))
	}

	opts := []treebuilder.TreeOpt{treebuilder.TreeOptAlgorithm(hashes[0].Algorithm())}
	if maskIV != "" {
		iv, err := hex.DecodeString(maskIV)
		if err != nil {
			return nil, 0, errors.New(errors.KsiInvalidArgumentError).SetExtError(err).
				AppendMessage("Blinding mask IV is not a valid hex string.")
		}
		opts = append(opts, treebuilder.TreeOptMaskingWithIndex(iv))
	}
	tree, err := treebuilder.New(opts...)
	if err != nil {
		return nil, 0, err
	}
	var hashOpts []treebuilder.InputHashOption
	if level != 0 {
		hashOpts = append(hashOpts, treebuilder.InputHashOptionLevel(byte(level)))
	}
	for _, h := range hashes {
		if err := tree.AddNode(h, hashOpts...); err != nil {
			return nil, 0, err
		}
	}
	root, lvl, err := tree.Aggregate()
	if err != nil {
		return nil, 0, err
	}
	return root, int(lvl), nil
}

func (a *app) extendCmd() *cobra.Command {
	var aggrTime, pubTime int64
	cmd := &cobra.Command{
		Use:   "extend",
		Short: "Send an extension request to the extender",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.serviceOptions(a.cfg.Extender, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			extender, err := service.NewExtender(opts...)
			if err != nil {
				return err
			}
			resp, err := extender.Extend(cmd.Context(), time.Unix(aggrTime, 0), unixOrZero(pubTime))
			if err != nil {
				return err
			}
			return printExtResp(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().Int64Var(&aggrTime, "aggr-time", 0, "aggregation time, seconds since epoch")
	cmd.Flags().Int64Var(&pubTime, "pub-time", 0, "publication time, seconds since epoch; head of the calendar if not set")
	_ = cmd.MarkFlagRequired("aggr-time")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "config aggr|ext",
		Short:     "Request the aggregator or the extender configuration",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"aggr", "ext"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				conf *pdu.Config
				err  error
			)
			if args[0] == "aggr" {
				conf, err = a.aggregatorConfig(cmd)
			} else {
				conf, err = a.extenderConfig(cmd)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), conf)
			return err
		},
	}
}

func (a *app) aggregatorConfig(cmd *cobra.Command) (*pdu.Config, error) {
	opts, err := a.serviceOptions(a.cfg.Aggregator, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	signer, err := service.NewSigner(opts...)
	if err != nil {
		return nil, err
	}
	return signer.Config(cmd.Context())
}

func (a *app) extenderConfig(cmd *cobra.Command) (*pdu.Config, error) {
	opts, err := a.serviceOptions(a.cfg.Extender, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	extender, err := service.NewExtender(opts...)
	if err != nil {
		return nil, err
	}
	return extender.Config(cmd.Context())
}
