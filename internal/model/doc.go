package model

// Package model defines domain data structures used across the app: playlist
// listings, video entries with their resolution lifecycle, quality tiers,
// download tasks and the status enums that drive them. Structures are designed
// for direct binding in the UI and explicit state transitions.
