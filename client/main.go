package main

import (
	"bufio"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/wfunc/roomstate/network"
)

// send frames and sends one intent to the presence server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	return c.WriteMessage(websocket.BinaryMessage, network.EncodePacket(msgID, data))
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			packet, err := network.DecodePacket(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			switch packet.MsgID {
			case network.MsgTypeStateChanged, network.MsgTypeStatusReply:
				var update struct {
					Status string `json:"status"`
				}
				if err := json.Unmarshal(packet.Data, &update); err == nil {
					log.Printf("<- %s", update.Status)
				}
			case network.MsgTypeError:
				var reply struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal(packet.Data, &reply); err == nil {
					log.Printf("<- error: %s", reply.Message)
				}
			default:
				log.Printf("<- msg %d (%d bytes)", packet.MsgID, packet.Length)
			}
		}
	}()

	// Input loop: join <room> | leave | status | quit
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 {
				continue
			}
			switch fields[0] {
			case "join":
				roomID := ""
				if len(fields) > 1 {
					roomID = fields[1]
				}
				data, _ := json.Marshal(map[string]string{"room_id": roomID})
				if err := send(c, network.MsgTypeJoinRoom, data); err != nil {
					log.Printf("Send failed: %v", err)
				}
			case "leave":
				if err := send(c, network.MsgTypeLeaveRoom, nil); err != nil {
					log.Printf("Send failed: %v", err)
				}
			case "status":
				if err := send(c, network.MsgTypeRoomStatus, nil); err != nil {
					log.Printf("Send failed: %v", err)
				}
			case "quit":
				c.Close()
				return
			default:
				log.Printf("Unknown command %q (join/leave/status/quit)", fields[0])
			}
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("Interrupted, closing connection")
		c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}
