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
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/guardtime/ksipdu/config"
	"github.com/guardtime/ksipdu/errors"
	"github.com/guardtime/ksipdu/hash"
	"github.com/guardtime/ksipdu/pdu"
)

// requestContext returns a context with IDs drawn from the provider. An explicit --request-id overrides the drawn
// request ID.
func (a *app) requestContext(cmd *cobra.Command, srv config.Service, requestID uint64) (*pdu.RequestContext, error) {
	creds, err := srv.Credentials()
	if err != nil {
		return nil, err
	}
	opts := []pdu.ContextOption{pdu.CtxOptProvider(a.ids)}
	if cmd.Flags().Changed("request-id") {
		opts = append(opts, pdu.CtxOptRequestID(requestID))
	}
	return pdu.NewRequestContext(creds, opts...)
}

// readContext returns a context for validating a stored response. The request ID is only checked if given.
func (a *app) readContext(cmd *cobra.Command, srv config.Service, requestID uint64) (*pdu.RequestContext, error) {
	creds, err := srv.Credentials()
	if err != nil {
		return nil, err
	}
	var opts []pdu.ContextOption
	if cmd.Flags().Changed("request-id") {
		opts = append(opts, pdu.CtxOptRequestID(requestID))
	}
	return pdu.NewRequestContext(creds, opts...)
}

func (a *app) aggrReqCmd() *cobra.Command {
	var (
		imprint   string
		level     int
		requestID uint64
	)
	cmd := &cobra.Command{
		Use:   "aggr-req",
		Short: "Print an aggregation request PDU in hex",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := hash.ParseImprint(imprint)
			if err != nil {
				return err
			}
			ctx, err := a.requestContext(cmd, a.cfg.Aggregator, requestID)
			if err != nil {
				return err
			}
			f, err := pdu.NewFactory(a.version)
			if err != nil {
				return err
			}
			raw, err := f.CreateAggregationRequest(ctx, h, level)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(raw))
			return err
		},
	}
	cmd.Flags().StringVar(&imprint, "hash", "", "request hash as <algorithm>:<hex>")
	cmd.Flags().IntVar(&level, "level", 0, "aggregation tree level of the hash")
	cmd.Flags().Uint64Var(&requestID, "request-id", 0, "request ID, random if not set")
	_ = cmd.MarkFlagRequired("hash")
	return cmd
}

func (a *app) extReqCmd() *cobra.Command {
	var (
		aggrTime, pubTime int64
		requestID         uint64
	)
	cmd := &cobra.Command{
		Use:   "ext-req",
		Short: "Print an extension request PDU in hex",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := a.requestContext(cmd, a.cfg.Extender, requestID)
			if err != nil {
				return err
			}
			f, err := pdu.NewFactory(a.version)
			if err != nil {
				return err
			}
			raw, err := f.CreateExtensionRequest(ctx, time.Unix(aggrTime, 0), unixOrZero(pubTime))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(raw))
			return err
		},
	}
	cmd.Flags().Int64Var(&aggrTime, "aggr-time", 0, "aggregation time, seconds since epoch")
	cmd.Flags().Int64Var(&pubTime, "pub-time", 0, "publication time, seconds since epoch; head of the calendar if not set")
	cmd.Flags().Uint64Var(&requestID, "request-id", 0, "request ID, random if not set")
	_ = cmd.MarkFlagRequired("aggr-time")
	return cmd
}

func (a *app) readAggrCmd() *cobra.Command {
	var requestID uint64
	cmd := &cobra.Command{
		Use:   "read-aggr FILE",
		Short: "Validate and print an aggregation response PDU",
		Long:  "Validate and print an aggregation response PDU read from FILE (hex or binary, - for stdin).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPdu(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			ctx, err := a.readContext(cmd, a.cfg.Aggregator, requestID)
			if err != nil {
				return err
			}
			f, err := pdu.NewFactory(a.version)
			if err != nil {
				return err
			}
			resp, err := f.ReadAggregationResponse(ctx, raw)
			if err != nil {
				return err
			}
			return printAggrResp(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().Uint64Var(&requestID, "request-id", 0, "expected request ID, not checked if not set")
	return cmd
}

func (a *app) readExtCmd() *cobra.Command {
	var requestID uint64
	cmd := &cobra.Command{
		Use:   "read-ext FILE",
		Short: "Validate and print an extension response PDU",
		Long:  "Validate and print an extension response PDU read from FILE (hex or binary, - for stdin).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPdu(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			ctx, err := a.readContext(cmd, a.cfg.Extender, requestID)
			if err != nil {
				return err
			}
			f, err := pdu.NewFactory(a.version)
			if err != nil {
				return err
			}
			resp, err := f.ReadExtensionResponse(ctx, raw)
			if err != nil {
				return err
			}
			return printExtResp(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().Uint64Var(&requestID, "request-id", 0, "expected request ID, not checked if not set")
	return cmd
}

// readPdu reads the PDU from the file. Content that is a valid hex string is decoded, anything else is taken as is.
func readPdu(stdin io.Reader, path string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.New(errors.KsiIoError).SetExtError(err).
			AppendMessage(fmt.Sprintf("Unable to read PDU from %s.", path))
	}

	if text := bytes.TrimSpace(raw); len(text) != 0 {
		if decoded, err := hex.DecodeString(string(text)); err == nil {
			return decoded, nil
		}
	}
	return raw, nil
}

func unixOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func printAggrResp(w io.Writer, resp *pdu.AggrResp) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Request ID: %d\n", resp.RequestID())
	if hdr := resp.Header(); hdr != nil {
		fmt.Fprintf(&b, "%s\n", hdr)
	}
	fmt.Fprintf(&b, "Aggregation chains: %d\n", len(resp.AggregationChains()))
	fmt.Fprintf(&b, "%s\n", resp.Tlv())
	if conf := resp.Config(); conf != nil {
		b.WriteString(conf.String())
	}
	_, err := w.Write(b.Bytes())
	return err
}

func printExtResp(w io.Writer, resp *pdu.ExtResp) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Request ID: %d\n", resp.RequestID())
	if hdr := resp.Header(); hdr != nil {
		fmt.Fprintf(&b, "%s\n", hdr)
	}
	if last, ok := resp.CalendarLast(); ok {
		fmt.Fprintf(&b, "Calendar last time: %d\n", last.Unix())
	}
	fmt.Fprintf(&b, "%s\n", resp.Tlv())
	if conf := resp.Config(); conf != nil {
		b.WriteString(conf.String())
	}
	_, err := w.Write(b.Bytes())
	return err
}
