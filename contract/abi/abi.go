package abi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/entity"
)

var (
	ErrInvalidEvent  = errors.New("invalid event")
	ErrUnknownEvent  = errors.New("unknown event")
	ErrUnknownMethod = errors.New("unknown method")
)

type ABI struct {
	abi.ABI
}

func MustReadABI(rawJSON string) ABI {
	res, err := abi.JSON(strings.NewReader(rawJSON))
	if err != nil {
		panic(err)
	}
	return ABI{res}
}

func (a *ABI) AllEvents() map[string]bool {
	events := make(map[string]bool, len(a.Events))
	for _, event := range a.Events {
		events[event.String()] = true
	}
	return events
}

func (a *ABI) FindMatchingEventABI(topics []common.Hash) *abi.Event {
	for _, e := range a.Events {
		if e.ID == topics[0] {
			indexed := Indexed(e.Inputs)
			if len(indexed) == len(topics)-1 {
				return &e
			}
		}
	}
	return nil
}

func (a *ABI) ParseLog(log *entity.Log) (string, map[string]interface{}, error) {
	topics := log.Topics()
	if len(topics) == 0 {
		return "", nil, ErrInvalidEvent
	}
	event := a.FindMatchingEventABI(topics)
	if event == nil {
		return "", nil, nil
	}

	res, err := DecodeEventLog(event, topics, log.Data)
	if err != nil {
		return "", nil, fmt.Errorf("can't decode event log: %w", err)
	}
	return event.String(), res, nil
}

// EncodeLog packs event arguments, given in declaration order, into log topics and data.
func (a *ABI) EncodeLog(name string, args ...interface{}) ([]common.Hash, []byte, error) {
	event, ok := a.Events[name]
	if !ok {
		return nil, nil, fmt.Errorf("event %s: %w", name, ErrUnknownEvent)
	}
	if len(args) != len(event.Inputs) {
		return nil, nil, fmt.Errorf("event %s expects %d arguments, got %d", name, len(event.Inputs), len(args))
	}
	topics := []common.Hash{event.ID}
	nonIndexed := make([]interface{}, 0, len(args))
	for i, input := range event.Inputs {
		if !input.Indexed {
			nonIndexed = append(nonIndexed, args[i])
			continue
		}
		topic, err := abi.MakeTopics([]interface{}{args[i]})
		if err != nil {
			return nil, nil, fmt.Errorf("can't encode topic %s: %w", input.Name, err)
		}
		topics = append(topics, topic[0][0])
	}
	data, err := event.Inputs.NonIndexed().Pack(nonIndexed...)
	if err != nil {
		return nil, nil, fmt.Errorf("can't encode event data: %w", err)
	}
	return topics, data, nil
}

// DecodeCall resolves calldata to one of the ABI methods and unpacks its arguments.
func (a *ABI) DecodeCall(data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("calldata is too short: %w", ErrUnknownMethod)
	}
	method, err := a.MethodById(data[:4])
	if err != nil {
		return nil, nil, fmt.Errorf("selector 0x%x: %w", data[:4], ErrUnknownMethod)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("can't unpack %s arguments: %w", method.Sig, err)
	}
	return method, args, nil
}

func Indexed(args abi.Arguments) abi.Arguments {
	var indexed abi.Arguments
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func DecodeEventLog(event *abi.Event, topics []common.Hash, data []byte) (map[string]interface{}, error) {
	indexed := Indexed(event.Inputs)
	values := make(map[string]interface{})
	if len(indexed) < len(event.Inputs) {
		if err := event.Inputs.UnpackIntoMap(values, data); err != nil {
			return nil, fmt.Errorf("can't unpack data: %w", err)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, topics[1:]); err != nil {
		return nil, fmt.Errorf("can't unpack topics: %w", err)
	}
	return values, nil
}
