/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package status defines metadata for errors returned by the gateway SDK. This
// information may be used by SDK users to make decisions about how to handle
// certain error conditions.
// Status codes are divided by group, where each group represents a particular
// component and the codes correspond to those returned by the component.
// The typed errors in errors.go classify failures by pipeline stage.
package status

import (
	"fmt"

	"github.com/golang/protobuf/ptypes"
	"github.com/pkg/errors"

	gp "github.com/hyperledger/fabric-protos-go/gateway"
	grpcstatus "google.golang.org/grpc/status"
)

// Status provides additional information about an unsuccessful operation
// performed by the SDK. Essentially, this object contains metadata about
// an error returned by the SDK.
type Status struct {
	// Group status group
	Group Group
	// Code status code
	Code int32
	// Message status message
	Message string
	// Details any additional status details
	Details []interface{}
}

// Group of status to help users infer status codes from various components
type Group int32

const (
	// UnknownStatus unknown status group
	UnknownStatus Group = iota

	// GRPCTransportStatus is the status associated with requests made over
	// gRPC connections
	GRPCTransportStatus

	// EndorserServerStatus status returned by the gateway while endorsing
	EndorserServerStatus
	// OrdererServerStatus status returned by the gateway while submitting to ordering
	OrdererServerStatus
	// CommitServerStatus status reported for a committed transaction (validation code)
	CommitServerStatus

	// ClientStatus is a generic client status
	ClientStatus

	// ChaincodeStatus defines the status codes returned by chaincode
	ChaincodeStatus
)

// GroupName maps the groups in this packages to human-readable strings
var GroupName = map[int32]string{
	0: "Unknown",
	1: "gRPC Transport Status",
	2: "Endorser Server Status",
	3: "Orderer Server Status",
	4: "Commit Server Status",
	5: "Client Status",
	6: "Chaincode status",
}

func (g Group) String() string {
	if s, ok := GroupName[int32(g)]; ok {
		return s
	}
	return UnknownStatus.String()
}

// FromError returns a Status representing err if available,
// otherwise it returns nil, false.
func FromError(err error) (s *Status, ok bool) {
	if err == nil {
		return &Status{Code: int32(OK)}, true
	}
	if s, ok := err.(*Status); ok {
		return s, true
	}
	unwrappedErr := errors.Cause(err)
	if s, ok := unwrappedErr.(*Status); ok {
		return s, true
	}
	var target *Status
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func (s *Status) Error() string {
	return fmt.Sprintf("%s Code: (%d) %s. Description: %s", s.Group.String(), s.Code, s.codeString(), s.Message)
}

func (s *Status) codeString() string {
	switch s.Group {
	case GRPCTransportStatus, EndorserServerStatus, OrdererServerStatus:
		return ToGRPCStatusCode(s.Code).String()
	case CommitServerStatus:
		return ToTransactionValidationCode(s.Code).String()
	case ClientStatus:
		return ToSDKStatusCode(s.Code).String()
	default:
		return Unknown.String()
	}
}

// ErrorDetails returns the per-endpoint details reported by the gateway
func (s *Status) ErrorDetails() []*gp.ErrorDetail {
	var details []*gp.ErrorDetail
	for _, d := range s.Details {
		if detail, ok := d.(*gp.ErrorDetail); ok {
			details = append(details, detail)
		}
	}
	return details
}

// New returns a Status with the given parameters
func New(group Group, code int32, msg string, details []interface{}) *Status {
	return &Status{Group: group, Code: code, Message: msg, Details: details}
}

// NewFromGRPCStatus new Status from gRPC status response
func NewFromGRPCStatus(s *grpcstatus.Status) *Status {
	return NewFromGRPCStatusInGroup(GRPCTransportStatus, s)
}

// NewFromGRPCStatusInGroup new Status in the given group from a gRPC status response.
// Gateway error details are unpacked into Details.
func NewFromGRPCStatusInGroup(group Group, s *grpcstatus.Status) *Status {
	if s == nil {
		return nil
	}
	details := make([]interface{}, 0, len(s.Proto().Details))
	for _, any := range s.Proto().Details {
		if ptypes.Is(any, &gp.ErrorDetail{}) {
			detail := &gp.ErrorDetail{}
			if err := ptypes.UnmarshalAny(any, detail); err == nil {
				details = append(details, detail)
				continue
			}
		}
		details = append(details, any)
	}

	return &Status{Group: group, Code: s.Proto().Code,
		Message: s.Message(), Details: details}
}
