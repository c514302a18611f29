package main

import (
	"fmt"
	"os"

	"scribe/config"
	"scribe/contract"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("scribe.main")

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Error loading configuration: " + err.Error())
	}
	flogging.ActivateSpec(cfg.LogLevel)

	cc, err := contractapi.NewChaincode(&contract.ScribeSmartContract{
		Contract: contractapi.Contract{Name: "scribe"},
	})
	if err != nil {
		panic("Error creating ScribeSmartContract: " + err.Error())
	}

	if !cfg.AsService() {
		if err := cc.Start(); err != nil {
			panic("Error starting chaincode: " + err.Error())
		}
		return
	}

	tlsProps, err := serverTLS(cfg)
	if err != nil {
		panic("Error loading chaincode TLS material: " + err.Error())
	}
	server := &shim.ChaincodeServer{
		CCID:     cfg.ChaincodeID,
		Address:  cfg.ServerAddress,
		CC:       cc,
		TLSProps: tlsProps,
	}
	logger.Infof("Starting chaincode service '%s' on %s (TLS disabled: %t)", cfg.ChaincodeID, cfg.ServerAddress, cfg.TLSDisabled)
	if err := server.Start(); err != nil {
		panic("Error starting chaincode service: " + err.Error())
	}
}

func serverTLS(cfg *config.Configuration) (shim.TLSProperties, error) {
	if cfg.TLSDisabled {
		return shim.TLSProperties{Disabled: true}, nil
	}
	key, err := os.ReadFile(cfg.TLSKeyFile)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("read key: %w", err)
	}
	cert, err := os.ReadFile(cfg.TLSCertFile)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("read cert: %w", err)
	}
	props := shim.TLSProperties{Key: key, Cert: cert}
	if cfg.TLSClientCA != "" {
		if props.ClientCACerts, err = os.ReadFile(cfg.TLSClientCA); err != nil {
			return shim.TLSProperties{}, fmt.Errorf("read client CA: %w", err)
		}
	}
	return props, nil
}
