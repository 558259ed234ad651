package domain

import "time"

type Quote struct {
	ID            string    `json:"id"`
	Premium       float64   `json:"premium"`
	ModelName     string    `json:"model_name"`
	ModelVersion  string    `json:"model_version"`
	Profile       string    `json:"profile"`
	FeatureDigest string    `json:"feature_digest"`
	ClientKey     string    `json:"-"`
	Cached        bool      `json:"cached"`
	CreatedAt     time.Time `json:"created_at"`
}
