/*
 * Copyright (c) the gocore contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      https://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

// graphcli is a smoke-test harness for the session/transaction stack: it
// opens an embedded (file://) driver backed by the toy memgraph connection
// and runs one statement through it, printing the record and summary it
// gets back. It exercises the same driver/session/transaction/cursor path a
// real bolt deployment would, without needing a server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neo4j-drivers/gocore/neo4j"
	"github.com/neo4j-drivers/gocore/neo4j/internal/memgraph"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var target string
	var write bool

	root := &cobra.Command{
		Use:   "graphcli <statement>",
		Short: "Run one statement through an embedded gocore driver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), target, args[0], write)
		},
	}
	root.Flags().StringVar(&target, "target", "file:///tmp/graphcli.db", "connection URI (file:// for the embedded toy engine)")
	root.Flags().BoolVar(&write, "write", false, "run inside an explicit write transaction instead of auto-commit")
	return root
}

func run(ctx context.Context, target, statement string, write bool) error {
	parsed, err := neo4j.ParseTarget(target)
	if err != nil {
		return err
	}
	if !parsed.Embedded {
		return &neo4j.UsageError{Message: "graphcli only drives the embedded (file://) engine"}
	}

	conn := memgraph.NewConnection(parsed.Path)
	driver, err := neo4j.NewDriverWithContext(target, neo4j.WithEmbeddedConnection(conn))
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	if !write {
		result, err := session.Run(ctx, statement, nil)
		if err != nil {
			return err
		}
		return printResult(ctx, result)
	}

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, statement, nil)
		if err != nil {
			return nil, err
		}
		return nil, printResult(ctx, result)
	})
	return err
}

func printResult(ctx context.Context, result neo4j.ResultWithContext) error {
	for result.Next(ctx) {
		fmt.Println(result.Record().AsMap())
	}
	if err := result.Err(); err != nil {
		return err
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("statement type: %v, bookmark: %s\n", summary.StatementType, summary.Bookmark)
	return nil
}
