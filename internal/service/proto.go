package service

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/pyretscan/internal/config"
)

const protoSource = `syntax = "proto3";

package pyretscan.v1;

// Scanner exposes the context-sensitive scanner to out-of-process engines.
service Scanner {
  // Scan runs one decision. The call is stateless: the caller passes the
  // serialized scanner state and gets the updated one back.
  rpc Scan(ScanRequest) returns (ScanResponse);
  // Tokenize lexes a whole buffer with a fixed candidate set.
  rpc Tokenize(TokenizeRequest) returns (TokenizeResponse);
}

message ScanRequest {
  bytes state = 1;
  string source = 2;
  uint32 offset = 3;
  repeated string candidates = 4;
  // valid is an engine-style flags array, read through the server's
  // externals layout and merged with candidates.
  repeated bool valid = 5;
}

message ScanResponse {
  bool produced = 1;
  string symbol = 2;
  uint32 start = 3;
  uint32 end = 4;
  bytes state = 5;
}

message TokenizeRequest {
  string source = 1;
  repeated string candidates = 2;
}

message Token {
  string kind = 1;
  string lexeme = 2;
  uint32 start = 3;
  uint32 end = 4;
  uint32 line = 5;
  uint32 column = 6;
}

message TokenizeResponse {
  repeated Token tokens = 1;
}
`

// LoadDescriptor parses the embedded service definition.
func LoadDescriptor() (*desc.FileDescriptor, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			config.ProtoFileName: protoSource,
		}),
	}
	fds, err := parser.ParseFiles(config.ProtoFileName)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", config.ProtoFileName, err)
	}
	if len(fds) != 1 {
		return nil, fmt.Errorf("parsing %s: expected 1 file, got %d", config.ProtoFileName, len(fds))
	}
	return fds[0], nil
}

// Describe returns the service definition as a descriptor proto.
func Describe() (*descriptorpb.FileDescriptorProto, error) {
	fd, err := LoadDescriptor()
	if err != nil {
		return nil, err
	}
	return fd.AsFileDescriptorProto(), nil
}

// ProtoSource returns the service definition in .proto syntax.
func ProtoSource() string { return protoSource }

type descriptors struct {
	file     *desc.FileDescriptor
	service  *desc.ServiceDescriptor
	scan     *desc.MethodDescriptor
	tokenize *desc.MethodDescriptor
	token    *desc.MessageDescriptor
}

func loadDescriptors() (*descriptors, error) {
	fd, err := LoadDescriptor()
	if err != nil {
		return nil, err
	}
	d := &descriptors{file: fd}
	if d.service = fd.FindService(config.ServiceName); d.service == nil {
		return nil, fmt.Errorf("service %s not found in %s", config.ServiceName, fd.GetName())
	}
	if d.scan = d.service.FindMethodByName(config.ScanMethod); d.scan == nil {
		return nil, fmt.Errorf("method %s not found", config.ScanMethod)
	}
	if d.tokenize = d.service.FindMethodByName(config.TokenizeMethod); d.tokenize == nil {
		return nil, fmt.Errorf("method %s not found", config.TokenizeMethod)
	}
	if d.token = fd.FindMessage("pyretscan.v1.Token"); d.token == nil {
		return nil, fmt.Errorf("message pyretscan.v1.Token not found")
	}
	return d, nil
}

func fullMethod(method string) string {
	return "/" + config.ServiceName + "/" + method
}
