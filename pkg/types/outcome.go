package types

import (
	"fmt"
)

// ExecutionStatusKind is the state of one transaction or receipt execution.
type ExecutionStatusKind uint8

const (
	ExecutionUnknown ExecutionStatusKind = iota
	ExecutionFailure
	ExecutionSuccessValue
	ExecutionSuccessReceiptID
)

var executionStatusNames = []string{"Unknown", "Failure", "SuccessValue", "SuccessReceiptId"}

func (k ExecutionStatusKind) String() string {
	if int(k) < len(executionStatusNames) {
		return executionStatusNames[k]
	}
	return fmt.Sprintf("ExecutionStatusKind(%d)", uint8(k))
}

func (k ExecutionStatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ExecutionStatusKind) UnmarshalText(text []byte) error {
	for i, name := range executionStatusNames {
		if name == string(text) {
			*k = ExecutionStatusKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown execution status %q", string(text))
}

// ExecutionError describes why an action failed.
type ExecutionError struct {
	ActionIndex int
	Kind        string
	Message     string
}

func (e *ExecutionError) Error() string {
	if e.ActionIndex < 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("action #%d %s: %s", e.ActionIndex, e.Kind, e.Message)
}

// ExecutionStatus is the status of a single execution outcome.
type ExecutionStatus struct {
	Kind             ExecutionStatusKind
	SuccessValue     []byte          `json:",omitempty"`
	SuccessReceiptID *CryptoHash     `json:",omitempty"`
	Failure          *ExecutionError `json:",omitempty"`
}

func SuccessValueStatus(value []byte) ExecutionStatus {
	return ExecutionStatus{Kind: ExecutionSuccessValue, SuccessValue: value}
}

func SuccessReceiptStatus(id CryptoHash) ExecutionStatus {
	return ExecutionStatus{Kind: ExecutionSuccessReceiptID, SuccessReceiptID: &id}
}

func FailureStatus(err *ExecutionError) ExecutionStatus {
	return ExecutionStatus{Kind: ExecutionFailure, Failure: err}
}

// ExecutionOutcome is the direct result of executing a transaction or a receipt.
type ExecutionOutcome struct {
	Logs        []string
	ReceiptIDs  []CryptoHash
	GasBurnt    Gas
	TokensBurnt Balance
	ExecutorID  AccountID
	Status      ExecutionStatus
}

// ExecutionOutcomeWithID ties an outcome to the transaction or receipt it belongs to.
type ExecutionOutcomeWithID struct {
	ID        CryptoHash
	BlockHash CryptoHash
	Outcome   ExecutionOutcome
}

// FinalExecutionStatusKind is the aggregate state of a transaction and all its receipts.
type FinalExecutionStatusKind uint8

const (
	FinalNotStarted FinalExecutionStatusKind = iota
	FinalStarted
	FinalFailure
	FinalSuccessValue
)

var finalStatusNames = []string{"NotStarted", "Started", "Failure", "SuccessValue"}

func (k FinalExecutionStatusKind) String() string {
	if int(k) < len(finalStatusNames) {
		return finalStatusNames[k]
	}
	return fmt.Sprintf("FinalExecutionStatusKind(%d)", uint8(k))
}

func (k FinalExecutionStatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *FinalExecutionStatusKind) UnmarshalText(text []byte) error {
	for i, name := range finalStatusNames {
		if name == string(text) {
			*k = FinalExecutionStatusKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown final execution status %q", string(text))
}

// FinalExecutionStatus is NotStarted, Started, Failure or SuccessValue. An empty
// SuccessValue means success without a return value.
type FinalExecutionStatus struct {
	Kind         FinalExecutionStatusKind
	SuccessValue []byte          `json:",omitempty"`
	Failure      *ExecutionError `json:",omitempty"`
}

func (s FinalExecutionStatus) IsSuccess() bool {
	return s.Kind == FinalSuccessValue
}

// IsFinal reports whether no receipt of the transaction is still pending.
func (s FinalExecutionStatus) IsFinal() bool {
	return s.Kind == FinalSuccessValue || s.Kind == FinalFailure
}

func (s FinalExecutionStatus) String() string {
	switch s.Kind {
	case FinalSuccessValue:
		return fmt.Sprintf("SuccessValue(%x)", s.SuccessValue)
	case FinalFailure:
		return fmt.Sprintf("Failure(%v)", s.Failure)
	default:
		return s.Kind.String()
	}
}

// FinalExecutionOutcome is the outcome of a transaction once every receipt it produced has
// been executed.
type FinalExecutionOutcome struct {
	Status             FinalExecutionStatus
	TransactionHash    CryptoHash
	TransactionOutcome ExecutionOutcomeWithID
	ReceiptsOutcome    []ExecutionOutcomeWithID
}

// Err returns the failure of a failed outcome and nil otherwise.
func (o *FinalExecutionOutcome) Err() error {
	if o.Status.Kind != FinalFailure {
		return nil
	}
	if o.Status.Failure == nil {
		return &ExecutionError{ActionIndex: -1, Kind: "Unknown", Message: "transaction failed"}
	}
	return o.Status.Failure
}

// Logs collects the logs of the transaction and all its receipts in execution order.
func (o *FinalExecutionOutcome) Logs() []string {
	var logs []string
	logs = append(logs, o.TransactionOutcome.Outcome.Logs...)
	for _, r := range o.ReceiptsOutcome {
		logs = append(logs, r.Outcome.Logs...)
	}
	return logs
}
