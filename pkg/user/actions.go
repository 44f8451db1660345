package user

import (
	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
)

// Each convenience operation is a receiver plus an action list. Client and AsyncClient both
// build their transactions here.

type actionPlan struct {
	receiverID types.AccountID
	actions    []types.Action
}

func sendMoneyPlan(receiverID types.AccountID, amount types.Balance) actionPlan {
	return actionPlan{receiverID, []types.Action{
		&types.TransferAction{Deposit: amount},
	}}
}

func deployContractPlan(signerID types.AccountID, code []byte) actionPlan {
	return actionPlan{signerID, []types.Action{
		&types.DeployContractAction{Code: code},
	}}
}

func functionCallPlan(contractID types.AccountID, method string, args []byte, gas types.Gas, deposit types.Balance) actionPlan {
	return actionPlan{contractID, []types.Action{
		&types.FunctionCallAction{MethodName: method, Args: args, Gas: gas, Deposit: deposit},
	}}
}

// The new account must exist before it receives funds or a key.
func createAccountPlan(newAccountID types.AccountID, pk crypto.PublicKey, amount types.Balance) actionPlan {
	return actionPlan{newAccountID, []types.Action{
		&types.CreateAccountAction{},
		&types.TransferAction{Deposit: amount},
		&types.AddKeyAction{PublicKey: pk, AccessKey: types.NewFullAccessKey()},
	}}
}

func addKeyPlan(signerID types.AccountID, pk crypto.PublicKey, key types.AccessKey) actionPlan {
	return actionPlan{signerID, []types.Action{
		&types.AddKeyAction{PublicKey: pk, AccessKey: key},
	}}
}

func deleteKeyPlan(signerID types.AccountID, pk crypto.PublicKey) actionPlan {
	return actionPlan{signerID, []types.Action{
		&types.DeleteKeyAction{PublicKey: pk},
	}}
}

func swapKeyPlan(signerID types.AccountID, oldPK, newPK crypto.PublicKey, key types.AccessKey) actionPlan {
	return actionPlan{signerID, []types.Action{
		&types.DeleteKeyAction{PublicKey: oldPK},
		&types.AddKeyAction{PublicKey: newPK, AccessKey: key},
	}}
}

// The remaining balance of receiverID goes to the signer.
func deleteAccountPlan(signerID, receiverID types.AccountID) actionPlan {
	return actionPlan{receiverID, []types.Action{
		&types.DeleteAccountAction{BeneficiaryID: signerID},
	}}
}

func stakePlan(signerID types.AccountID, pk crypto.PublicKey, amount types.Balance) actionPlan {
	return actionPlan{signerID, []types.Action{
		&types.StakeAction{Stake: amount, PublicKey: pk},
	}}
}
