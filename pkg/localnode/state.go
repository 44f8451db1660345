package localnode

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	"github.com/minio/blake2b-simd"
	"github.com/pkg/errors"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
)

// State layout, relative to the /state namespace:
//
//	/account/<id>            types.Account
//	/key/<id>/<public key>   types.AccessKey
//	/code/<id>               contract code
//	/data/<id>/k<hex key>    contract storage
func accountKey(id types.AccountID) datastore.Key {
	return datastore.NewKey("/account/" + string(id))
}

func accessKeyPrefix(id types.AccountID) datastore.Key {
	return datastore.NewKey("/key/" + string(id))
}

func accessKeyKey(id types.AccountID, pk crypto.PublicKey) datastore.Key {
	return accessKeyPrefix(id).ChildString(pk.String())
}

func codeKey(id types.AccountID) datastore.Key {
	return datastore.NewKey("/code/" + string(id))
}

func dataPrefix(id types.AccountID) datastore.Key {
	return datastore.NewKey("/data/" + string(id))
}

func dataKey(id types.AccountID, key []byte) datastore.Key {
	return dataPrefix(id).ChildString("k" + hex.EncodeToString(key))
}

func dataKeyBytes(k datastore.Key) ([]byte, error) {
	name := k.BaseNamespace()
	if !strings.HasPrefix(name, "k") {
		return nil, errors.Errorf("malformed storage key %s", k)
	}
	return hex.DecodeString(name[1:])
}

// overlay buffers writes on top of a datastore. Nothing reaches the datastore until commit,
// so a failed receipt is rolled back by dropping its overlay.
type overlay struct {
	ctx     context.Context
	base    datastore.Read
	writes  map[datastore.Key][]byte
	deletes map[datastore.Key]struct{}
}

func newOverlay(ctx context.Context, base datastore.Read) *overlay {
	return &overlay{
		ctx:     ctx,
		base:    base,
		writes:  make(map[datastore.Key][]byte),
		deletes: make(map[datastore.Key]struct{}),
	}
}

func (o *overlay) get(key datastore.Key) ([]byte, error) {
	if v, ok := o.writes[key]; ok {
		return v, nil
	}
	if _, ok := o.deletes[key]; ok {
		return nil, datastore.ErrNotFound
	}
	return o.base.Get(o.ctx, key)
}

func (o *overlay) put(key datastore.Key, value []byte) {
	delete(o.deletes, key)
	o.writes[key] = value
}

func (o *overlay) remove(key datastore.Key) {
	delete(o.writes, key)
	o.deletes[key] = struct{}{}
}

// entries lists the live keys below prefix whose last component starts with namePrefix,
// sorted.
func (o *overlay) entries(prefix datastore.Key, namePrefix string) ([]datastore.Key, error) {
	full := prefix.String() + "/" + namePrefix
	res, err := o.base.Query(o.ctx, query.Query{
		Prefix:   prefix.String(),
		Filters:  []query.Filter{query.FilterKeyPrefix{Prefix: full}},
		KeysOnly: true,
	})
	if err != nil {
		return nil, err
	}
	all, err := res.Rest()
	if err != nil {
		return nil, err
	}

	seen := make(map[datastore.Key]struct{}, len(all)+len(o.writes))
	for _, e := range all {
		k := datastore.RawKey(e.Key)
		if _, deleted := o.deletes[k]; deleted {
			continue
		}
		seen[k] = struct{}{}
	}
	for k := range o.writes {
		if strings.HasPrefix(k.String(), full) {
			seen[k] = struct{}{}
		}
	}

	keys := make([]datastore.Key, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}

func (o *overlay) commit(ds datastore.Batching) error {
	if len(o.writes) == 0 && len(o.deletes) == 0 {
		return nil
	}
	b, err := ds.Batch(o.ctx)
	if err != nil {
		return err
	}
	for k, v := range o.writes {
		if err := b.Put(o.ctx, k, v); err != nil {
			return errors.Wrapf(err, "put %s", k)
		}
	}
	for k := range o.deletes {
		if err := b.Delete(o.ctx, k); err != nil {
			return errors.Wrapf(err, "delete %s", k)
		}
	}
	return b.Commit(o.ctx)
}

func (o *overlay) getAccount(id types.AccountID) (*types.Account, error) {
	raw, err := o.get(accountKey(id))
	if err == datastore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load account %s", id)
	}
	var acc types.Account
	if err := types.Unmarshal(raw, &acc); err != nil {
		return nil, errors.Wrapf(err, "decode account %s", id)
	}
	return &acc, nil
}

func (o *overlay) setAccount(id types.AccountID, acc *types.Account) error {
	raw, err := types.Marshal(acc)
	if err != nil {
		return errors.Wrapf(err, "encode account %s", id)
	}
	o.put(accountKey(id), raw)
	return nil
}

func (o *overlay) getAccessKey(id types.AccountID, pk crypto.PublicKey) (*types.AccessKey, error) {
	raw, err := o.get(accessKeyKey(id, pk))
	if err == datastore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load access key %s/%s", id, pk)
	}
	var key types.AccessKey
	if err := types.Unmarshal(raw, &key); err != nil {
		return nil, errors.Wrapf(err, "decode access key %s/%s", id, pk)
	}
	return &key, nil
}

func (o *overlay) setAccessKey(id types.AccountID, pk crypto.PublicKey, key *types.AccessKey) error {
	raw, err := types.Marshal(key)
	if err != nil {
		return errors.Wrapf(err, "encode access key %s/%s", id, pk)
	}
	o.put(accessKeyKey(id, pk), raw)
	return nil
}

func (o *overlay) accessKeys(id types.AccountID) ([]types.AccessKeyInfo, error) {
	keys, err := o.entries(accessKeyPrefix(id), "")
	if err != nil {
		return nil, err
	}
	out := make([]types.AccessKeyInfo, 0, len(keys))
	for _, k := range keys {
		pk, err := crypto.ParsePublicKey(k.BaseNamespace())
		if err != nil {
			return nil, errors.Wrapf(err, "malformed access key entry %s", k)
		}
		key, err := o.getAccessKey(id, pk)
		if err != nil {
			return nil, err
		}
		if key != nil {
			out = append(out, types.AccessKeyInfo{PublicKey: pk, AccessKey: *key})
		}
	}
	return out, nil
}

func (o *overlay) getCode(id types.AccountID) ([]byte, error) {
	raw, err := o.get(codeKey(id))
	if err == datastore.ErrNotFound {
		return nil, nil
	}
	return raw, err
}

// removeAccount drops the account with its keys, code and storage.
func (o *overlay) removeAccount(id types.AccountID) error {
	for _, prefix := range []datastore.Key{accessKeyPrefix(id), dataPrefix(id)} {
		keys, err := o.entries(prefix, "")
		if err != nil {
			return err
		}
		for _, k := range keys {
			o.remove(k)
		}
	}
	o.remove(codeKey(id))
	o.remove(accountKey(id))
	return nil
}

// contractStorage is the Storage a contract sees, scoped to its own account.
type contractStorage struct {
	o       *overlay
	account types.AccountID
}

func (s *contractStorage) Get(key []byte) ([]byte, bool, error) {
	v, err := s.o.get(dataKey(s.account, key))
	if err == datastore.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *contractStorage) Set(key, value []byte) error {
	s.o.put(dataKey(s.account, key), value)
	return nil
}

func (s *contractStorage) Remove(key []byte) error {
	s.o.remove(dataKey(s.account, key))
	return nil
}

// viewState lists the storage of id under prefix ordered by key.
func (o *overlay) viewState(id types.AccountID, prefix []byte) ([]types.StateItem, error) {
	keys, err := o.entries(dataPrefix(id), "k"+hex.EncodeToString(prefix))
	if err != nil {
		return nil, err
	}
	items := make([]types.StateItem, 0, len(keys))
	for _, k := range keys {
		key, err := dataKeyBytes(k)
		if err != nil {
			return nil, err
		}
		v, err := o.get(k)
		if err != nil {
			return nil, err
		}
		items = append(items, types.StateItem{Key: key, Value: v})
	}
	return items, nil
}

// stateRoot hashes every state entry in key order.
func stateRoot(ctx context.Context, ds datastore.Read) (types.CryptoHash, error) {
	res, err := ds.Query(ctx, query.Query{Orders: []query.Order{query.OrderByKey{}}})
	if err != nil {
		return types.EmptyHash, err
	}
	defer res.Close() // nolint:errcheck

	h := blake2b.New256()
	var lenBuf [binary.MaxVarintLen64]byte
	for r := range res.Next() {
		if r.Error != nil {
			return types.EmptyHash, r.Error
		}
		n := binary.PutUvarint(lenBuf[:], uint64(len(r.Key)))
		h.Write(lenBuf[:n])    // nolint:errcheck
		h.Write([]byte(r.Key)) // nolint:errcheck
		n = binary.PutUvarint(lenBuf[:], uint64(len(r.Value)))
		h.Write(lenBuf[:n]) // nolint:errcheck
		h.Write(r.Value)    // nolint:errcheck
	}
	var root types.CryptoHash
	copy(root[:], h.Sum(nil))
	return root, nil
}
