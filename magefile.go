//go:build mage

// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName    = "weekperf"
	packageName   = "."
	versionPrefix = "github.com/penny-vault/weekperf/common"
)

var ldflags = fmt.Sprintf("-X %s.commitHash=$COMMIT_HASH -X %s.buildDate=$BUILD_DATE", versionPrefix, versionPrefix)

// GOEXE overrides the go executable
var goexe = "go"

func init() {
	if exe := os.Getenv("GOEXE"); exe != "" {
		goexe = exe
	}
}

var Default = Build

// Build the weekperf binary with the commit hash and build date embedded
func Build() error {
	fmt.Println("Building...")
	return sh.RunWith(flagEnv(), goexe, "build", "-o", binaryName, "-ldflags", ldflags, packageName)
}

func Install() error {
	return sh.RunWith(flagEnv(), goexe, "install", "-ldflags", ldflags, packageName)
}

// Clean removes the binary
func Clean() error {
	fmt.Println("Cleaning...")
	return sh.Rm(binaryName)
}

// Check formats, vets and runs the race enabled tests
func Check() {
	mg.SerialDeps(Fmt, Vet, TestRace)
}

func Test() error {
	fmt.Println("Go Test")
	return runCmd(goexe, "test", "./...")
}

func TestRace() error {
	fmt.Println("Go Test Race")
	return runCmd(goexe, "test", "-race", "./...")
}

// Fmt fails when gofmt would change any file
func Fmt() error {
	fmt.Println("Go Format")

	// gofmt doesn't exit with non-zero when it finds unformatted code
	out, err := sh.Output("gofmt", "-l", "cmd", "common", "data", "dataframe", "marketdata", "observability", "portfolio", "strategies", "main.go")
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Println("The following files are not gofmt'ed:")
		fmt.Println(out)
		return errors.New("improperly formatted go files")
	}
	return nil
}

func Vet() error {
	fmt.Println("Go Vet")
	if err := sh.Run(goexe, "vet", "./..."); err != nil {
		return fmt.Errorf("error running go vet: %w", err)
	}
	return nil
}

func flagEnv() map[string]string {
	hash, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	return map[string]string{
		"COMMIT_HASH": strings.TrimSpace(hash),
		"BUILD_DATE":  time.Now().Format("2006-01-02T15:04:05Z0700"),
	}
}

func runCmd(cmd string, args ...string) error {
	if mg.Verbose() {
		return sh.Run(cmd, args...)
	}
	output, err := sh.Output(cmd, args...)
	if err != nil {
		fmt.Fprint(os.Stderr, output)
	}
	return err
}
