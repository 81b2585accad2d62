// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package config loads Natours configuration with koanf.
//
// Sources are layered, later ones winning:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/natours/config.yaml)
//  3. Environment variables (see envMappings)
//
// The environment names follow the deployment conventions the service has
// always used: DATABASE holds the connection string with a <PASSWORD>
// placeholder that DATABASE_PASSWORD fills in, JWT_EXPIRES_IN accepts day
// suffixes such as "90d", and NODE_ENV is accepted as an alias of ENVIRONMENT.
package config
