// Package model defines the record types shared across the ingestion and
// classification pipeline.
package model

import "strings"

// Status represents the operational state of a cell site.
type Status string

const (
	StatusOperational    Status = "operational"
	StatusNonOperational Status = "non_operational"
)

// RiskLevel is the discretized proximity-to-fault classification.
type RiskLevel string

const (
	RiskHigh    RiskLevel = "high"
	RiskMedium  RiskLevel = "medium"
	RiskLow     RiskLevel = "low"
	RiskUnknown RiskLevel = "unknown"
)

// SiteRecord is one cell-site observation. Every emitted record has finite
// coordinates, a non-empty provider, and a non-empty city; rows that cannot
// satisfy that are dropped at parse time.
type SiteRecord struct {
	ID              string    `json:"id" yaml:"id"`
	Provider        string    `json:"provider" yaml:"provider"`
	City            string    `json:"city" yaml:"city"`
	Province        string    `json:"province" yaml:"province"`
	Latitude        float64   `json:"latitude" yaml:"latitude"`
	Longitude       float64   `json:"longitude" yaml:"longitude"`
	Status          Status    `json:"status" yaml:"status"`
	RiskLevel       RiskLevel `json:"riskLevel" yaml:"riskLevel"`
	DistanceToFault *float64  `json:"distanceToFault,omitempty" yaml:"distanceToFault,omitempty"`
	Address         string    `json:"address,omitempty" yaml:"address,omitempty"`
}

// StagingAreaRecord is a disaster-staging location (evacuation hub, relief
// depot, command post).
type StagingAreaRecord struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Function  string  `json:"function" yaml:"function"`
	Location  string  `json:"location" yaml:"location"`
	City      string  `json:"city" yaml:"city"`
	Province  string  `json:"province" yaml:"province"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// NormalizeStatus maps free-text status synonyms onto the closed Status set.
// Unrecognized values default to operational.
func NormalizeStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "offline", "non-operational", "non_operational", "down", "inactive":
		return StatusNonOperational
	case "online", "operational", "active", "up":
		return StatusOperational
	default:
		return StatusOperational
	}
}

// ParseRiskLevel reports whether s is a member of the closed {high, medium,
// low} set carried by pre-tagged input rows. Anything else is not trusted.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return RiskHigh, true
	case "medium":
		return RiskMedium, true
	case "low":
		return RiskLow, true
	default:
		return RiskUnknown, false
	}
}
