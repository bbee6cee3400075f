/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"time"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/metrics"
	"github.com/pkg/errors"
)

var (
	evaluationsReceived = metrics.CounterOpts{
		Namespace:  "gateway",
		Name:       "evaluations_received",
		Help:       "The number of transaction evaluations received.",
		LabelNames: []string{"chaincode", "fcn"},
	}
	evaluationsFailed = metrics.CounterOpts{
		Namespace:  "gateway",
		Name:       "evaluations_failed",
		Help:       "The number of transaction evaluations that failed (timeouts excluded).",
		LabelNames: []string{"chaincode", "fcn", "fail"},
	}
	evaluationTimeouts = metrics.CounterOpts{
		Namespace:  "gateway",
		Name:       "evaluation_timeouts",
		Help:       "The number of transaction evaluations that have failed due to time out.",
		LabelNames: []string{"chaincode", "fcn"},
	}
	evaluationDuration = metrics.HistogramOpts{
		Namespace:  "gateway",
		Name:       "evaluation_duration",
		Help:       "The time to complete a transaction evaluation.",
		LabelNames: []string{"chaincode", "fcn"},
	}
	submissionsReceived = metrics.CounterOpts{
		Namespace:  "gateway",
		Name:       "submissions_received",
		Help:       "The number of transaction submissions received.",
		LabelNames: []string{"chaincode", "fcn"},
	}
	submissionsFailed = metrics.CounterOpts{
		Namespace:  "gateway",
		Name:       "submissions_failed",
		Help:       "The number of transaction submissions that failed (timeouts excluded).",
		LabelNames: []string{"chaincode", "fcn", "fail"},
	}
	submissionTimeouts = metrics.CounterOpts{
		Namespace:  "gateway",
		Name:       "submission_timeouts",
		Help:       "The number of transaction submissions that have failed due to time out.",
		LabelNames: []string{"chaincode", "fcn"},
	}
	submissionDuration = metrics.HistogramOpts{
		Namespace:  "gateway",
		Name:       "submission_duration",
		Help:       "The time to complete a transaction submission.",
		LabelNames: []string{"chaincode", "fcn"},
	}
)

type gatewayMetrics struct {
	EvaluationsReceived metrics.Counter
	EvaluationsFailed   metrics.Counter
	EvaluationTimeouts  metrics.Counter
	EvaluationDuration  metrics.Histogram
	SubmissionsReceived metrics.Counter
	SubmissionsFailed   metrics.Counter
	SubmissionTimeouts  metrics.Counter
	SubmissionDuration  metrics.Histogram
}

func newGatewayMetrics(p metrics.Provider) *gatewayMetrics {
	return &gatewayMetrics{
		EvaluationsReceived: p.NewCounter(evaluationsReceived),
		EvaluationsFailed:   p.NewCounter(evaluationsFailed),
		EvaluationTimeouts:  p.NewCounter(evaluationTimeouts),
		EvaluationDuration:  p.NewHistogram(evaluationDuration),
		SubmissionsReceived: p.NewCounter(submissionsReceived),
		SubmissionsFailed:   p.NewCounter(submissionsFailed),
		SubmissionTimeouts:  p.NewCounter(submissionTimeouts),
		SubmissionDuration:  p.NewHistogram(submissionDuration),
	}
}

func (m *gatewayMetrics) observeEvaluate(chaincode, fcn string, start time.Time, err error) {
	observe(chaincode, fcn, start, err, m.EvaluationsReceived, m.EvaluationsFailed, m.EvaluationTimeouts, m.EvaluationDuration)
}

func (m *gatewayMetrics) observeSubmit(chaincode, fcn string, start time.Time, err error) {
	observe(chaincode, fcn, start, err, m.SubmissionsReceived, m.SubmissionsFailed, m.SubmissionTimeouts, m.SubmissionDuration)
}

func observe(chaincode, fcn string, start time.Time, err error, received, failed, timeouts metrics.Counter, duration metrics.Histogram) {
	labels := []string{"chaincode", chaincode, "fcn", fcn}

	received.With(labels...).Add(1)
	duration.With(labels...).Observe(time.Since(start).Seconds())

	if err == nil {
		return
	}
	if status.IsDeadlineExceeded(err) {
		timeouts.With(labels...).Add(1)
		return
	}
	failed.With(append(labels, "fail", failureKind(err))...).Add(1)
}

func failureKind(err error) string {
	var (
		ccErr     *status.ChaincodeError
		endErr    *status.EndorsementError
		submitErr *status.SubmitError
		commitErr *status.CommitError
	)
	switch {
	case errors.As(err, &ccErr):
		return "chaincode"
	case errors.As(err, &endErr):
		return "endorsement"
	case errors.As(err, &submitErr):
		return "submit"
	case errors.As(err, &commitErr):
		return "commit"
	case status.IsCanceled(err):
		return "canceled"
	default:
		return "other"
	}
}
