package grpc

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// VisitServiceFile is the descriptor path of VisitService, resolvable
// through server reflection
const VisitServiceFile = "poivisits/v1/visits.proto"

func init() {
	if err := registerVisitServiceFile(protoregistry.GlobalFiles); err != nil {
		panic(err)
	}
}

// visitServiceFileProto describes VisitService; every method exchanges
// google.protobuf.Struct messages
func visitServiceFileProto() *descriptorpb.FileDescriptorProto {
	method := func(name string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(".google.protobuf.Struct"),
			OutputType: proto.String(".google.protobuf.Struct"),
		}
	}

	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(VisitServiceFile),
		Package:    proto.String("poivisits.v1"),
		Dependency: []string{"google/protobuf/struct.proto"},
		Syntax:     proto.String("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/stuartshay/poi-visits/internal/grpc"),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   proto.String("VisitService"),
			Method: []*descriptorpb.MethodDescriptorProto{method("SubmitRun"), method("GetRun"), method("ListRuns")},
		}},
	}
}

func registerVisitServiceFile(files *protoregistry.Files) error {
	fd, err := protodesc.NewFile(visitServiceFileProto(), files)
	if err != nil {
		return fmt.Errorf("invalid %s descriptor: %w", VisitServiceFile, err)
	}
	return files.RegisterFile(fd)
}
