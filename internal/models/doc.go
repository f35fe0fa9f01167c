// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package models defines the domain records shared across Stagewatch: events,
// tickets, cast entries, and crowd-submitted seat reports.
//
// Wire types for the consumed external APIs live in the platform and
// schedule subpackages; the fetch and enrich packages map them into these
// domain records so the rest of the pipeline never sees upstream encodings.
package models
