// Package db carries the embedded schema for the shop database. The binary
// applies it at startup so deploys never depend on an external migration step.
package db

import _ "embed"

// Schema holds the DDL for every table the shop core owns: products, orders
// and their status events, payment attempts, discount rules, promo codes,
// settings rows and admin API keys.
//
//go:embed migrations/001_schema.sql
var Schema string
