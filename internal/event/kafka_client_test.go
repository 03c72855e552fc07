package event

import (
	"testing"
)

func TestNewKafkaClientRequiresTopicAndGroup(t *testing.T) {
	if _, err := NewKafkaClient("127.0.0.1", "9092", "", "common"); err == nil {
		t.Fatal("expected an error without topic")
	}
	if _, err := NewKafkaClient("127.0.0.1", "9092", "common", ""); err == nil {
		t.Fatal("expected an error without group")
	}
}

func TestPublisherDoesNotJoinGroup(t *testing.T) {
	client, err := NewKafkaClient("127.0.0.1", "9092", "common", "common")
	if err != nil {
		t.Fatal(err)
	}
	if client.reader != nil {
		t.Fatal("the group reader must not exist before the first read")
	}
	if client.readerConfig.GroupID != "common" || client.readerConfig.Brokers[0] != "127.0.0.1:9092" {
		t.Fatalf("unexpected reader config %+v", client.readerConfig)
	}
	if err := client.Close(); err != nil {
		t.Fatal(err)
	}
}
