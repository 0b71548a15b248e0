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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/penny-vault/weekperf/cmd"
)

func configureViper() {
	// a .env file in the working directory supplies the Alpha Vantage key when it is not exported
	_ = godotenv.Load()

	viper.SetConfigName("weekperf")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc/weekperf/")
	viper.AddConfigPath("$HOME/.config/weekperf")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal().Err(err).Msg("could not read config file")
		}
	}
}

func main() {
	configureViper()
	cmd.Execute()
}
