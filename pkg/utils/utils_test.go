package utils_test

import (
	"testing"

	"github.com/w3licence/licence-gateway/pkg/utils"
)

func TestParseWei(t *testing.T) {
	wei, err := utils.ParseWei("1000000000000000000")
	if err != nil || wei.String() != "1000000000000000000" {
		t.Errorf("Should have parsed one ether: %v %v", wei, err)
	}
	wei, err = utils.ParseWei("0x10")
	if err != nil || wei.Int64() != 16 {
		t.Errorf("Should have parsed hex: %v %v", wei, err)
	}
	_, err = utils.ParseWei("0.5")
	if err == nil {
		t.Errorf("Should have rejected a fractional amount")
	}
	_, err = utils.ParseWei("-1")
	if err == nil {
		t.Errorf("Should have rejected a negative amount")
	}
	_, err = utils.ParseWei("")
	if err == nil {
		t.Errorf("Should have rejected an empty amount")
	}
	_, err = utils.ParsePositiveWei("0")
	if err == nil {
		t.Errorf("Should have rejected zero")
	}
}

func TestCleanHost(t *testing.T) {
	cases := map[string]string{
		"ipfs.w3s.link":           "ipfs.w3s.link",
		"https://IPFS.w3s.link/":  "ipfs.w3s.link",
		"http://gateway.test/abc": "gateway.test",
	}
	for in, expected := range cases {
		host, err := utils.CleanHost(in)
		if err != nil {
			t.Errorf("err: %v", err)
		}
		if host != expected {
			t.Errorf("Expected %v for %v, got %v", expected, in, host)
		}
	}
}

func TestFormatSecs(t *testing.T) {
	if utils.FormatSecs(0) != "" {
		t.Errorf("Zero should format as empty")
	}
	if utils.FormatSecs(1700000000) != "2023-11-14T22:13:20Z" {
		t.Errorf("Unexpected format: %v", utils.FormatSecs(1700000000))
	}
}
