package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"ykjam/mmpay-sdk/pkg"
)

func run() error {
	log.Info("Starting MMPay CLI")
	complete := false

	var input string
	var err error
	var reader *bufio.Reader
	var service pkg.Service
	var payResponse pkg.PaymentResponse
	err = godotenv.Load()
	if err != nil {
		log.WithError(err).Error("error loading .env, ignoring")
	}
	reader = bufio.NewReader(os.Stdin)
	ctx := context.Background()
	var apiBaseUrl, appId, publishableKey, secretKey, currency, callbackUrl string
	apiBaseUrl = os.Getenv("MMPAY_API_BASE_URL")
	appId = os.Getenv("MMPAY_APP_ID")
	publishableKey = os.Getenv("MMPAY_PUBLISHABLE_KEY")
	secretKey = os.Getenv("MMPAY_SECRET_KEY")
	currency = os.Getenv("MMPAY_CURRENCY")
	callbackUrl = os.Getenv("MMPAY_CALLBACK_URL")

mainLoop:
	for !complete {
		for !complete {
			if apiBaseUrl != "" {
				fmt.Printf("api base url [%s] > ", apiBaseUrl)
			} else {
				fmt.Print("api base url > ")
			}

			input, err = reader.ReadString('\n')
			if err != nil {
				eMsg := "error reading api base url, leaving"
				log.WithError(err).Error(eMsg)
				return errors.Wrap(err, eMsg)
			}
			input = strings.TrimSpace(input)
			if input != "" {
				apiBaseUrl = input
			}
			// verify url here
			if !strings.HasPrefix(apiBaseUrl, "https://") || len(apiBaseUrl) < 12 {
				eMsg := "please verify api base url"
				fmt.Println(eMsg)
				continue
			}
			complete = true
		}

		if appId != "" {
			fmt.Printf("app id [%s] > ", appId)
		} else {
			fmt.Print("app id > ")
		}
		input, err = reader.ReadString('\n')
		if err != nil {
			eMsg := "error reading app id, leaving"
			log.WithError(err).Error(eMsg)
			return errors.Wrap(err, eMsg)
		}
		input = strings.TrimSpace(input)
		if input != "" {
			appId = input
		}

		if publishableKey != "" {
			fmt.Printf("publishable key [%s] > ", publishableKey)
		} else {
			fmt.Print("publishable key > ")
		}
		input, err = reader.ReadString('\n')
		if err != nil {
			eMsg := "error reading publishable key, leaving"
			log.WithError(err).Error(eMsg)
			return errors.Wrap(err, eMsg)
		}
		input = strings.TrimSpace(input)
		if input != "" {
			publishableKey = input
		}

		if secretKey != "" {
			fmt.Print("secret key [hidden] > ")
		} else {
			fmt.Print("secret key > ")
		}
		input, err = reader.ReadString('\n')
		if err != nil {
			eMsg := "error reading secret key, leaving"
			log.WithError(err).Error(eMsg)
			return errors.Wrap(err, eMsg)
		}
		input = strings.TrimSpace(input)
		if input != "" {
			secretKey = input
		}

		service, err = pkg.NewService(pkg.Config{
			AppId:          appId,
			PublishableKey: publishableKey,
			SecretKey:      secretKey,
			ApiBaseUrl:     apiBaseUrl,
			Timeout:        30 * time.Second,
		})
		if err != nil {
			eMsg := "error initializing service, restarting"
			log.WithError(err).Error(eMsg)
			complete = false
			continue mainLoop
		}
		log.Info("service initialized")

		orderId := uuid.NewString()
		fmt.Printf("order id [%s] > ", orderId)
		input, err = reader.ReadString('\n')
		if err != nil {
			eMsg := "error reading order id, leaving"
			log.WithError(err).Error(eMsg)
			return errors.Wrap(err, eMsg)
		}
		input = strings.TrimSpace(input)
		if input != "" {
			orderId = input
		}

		var amount decimal.Decimal
		for {
			fmt.Print("amount > ")
			input, err = reader.ReadString('\n')
			if err != nil {
				eMsg := "error reading amount, leaving"
				log.WithError(err).Error(eMsg)
				return errors.Wrap(err, eMsg)
			}
			input = strings.TrimSpace(input)
			amount, err = decimal.NewFromString(input)
			if err != nil || !amount.IsPositive() {
				fmt.Println("please enter a positive decimal amount")
				continue
			}
			break
		}

		if currency != "" {
			fmt.Printf("currency [%s] > ", currency)
		} else {
			fmt.Print("currency (optional) > ")
		}
		input, err = reader.ReadString('\n')
		if err != nil {
			eMsg := "error reading currency, leaving"
			log.WithError(err).Error(eMsg)
			return errors.Wrap(err, eMsg)
		}
		input = strings.TrimSpace(input)
		if input != "" {
			currency = input
		}

		if callbackUrl != "" {
			fmt.Printf("callback url [%s] > ", callbackUrl)
		} else {
			fmt.Print("callback url (optional) > ")
		}
		input, err = reader.ReadString('\n')
		if err != nil {
			eMsg := "error reading callback url, leaving"
			log.WithError(err).Error(eMsg)
			return errors.Wrap(err, eMsg)
		}
		input = strings.TrimSpace(input)
		if input != "" {
			callbackUrl = input
		}

		itemName := "Order payment"
		fmt.Printf("item name [%s] > ", itemName)
		input, err = reader.ReadString('\n')
		if err != nil {
			eMsg := "error reading item name, leaving"
			log.WithError(err).Error(eMsg)
			return errors.Wrap(err, eMsg)
		}
		input = strings.TrimSpace(input)
		if input != "" {
			itemName = input
		}

		fmt.Print("sandbox mode? [y/N] > ")
		input, err = reader.ReadString('\n')
		if err != nil {
			eMsg := "error reading sandbox mode, leaving"
			log.WithError(err).Error(eMsg)
			return errors.Wrap(err, eMsg)
		}
		input = strings.TrimSpace(input)
		sandbox := strings.EqualFold(input, "y")

		payRequest := pkg.PaymentRequest{
			OrderId: orderId,
			Amount:  amount.InexactFloat64(),
			Items: []pkg.Item{
				{Name: itemName, Amount: amount.InexactFloat64(), Quantity: 1},
			},
			Currency:    currency,
			CallbackUrl: callbackUrl,
		}

		if sandbox {
			payResponse, err = service.SandboxPay(ctx, payRequest)
		} else {
			payResponse, err = service.Pay(ctx, payRequest)
		}
		if err != nil {
			eMsg := "error executing pay, restarting"
			log.WithError(err).Error(eMsg)
			complete = false
			continue mainLoop
		}
		fmt.Printf("response: %v\n\n", payResponse)

	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v", err)
		os.Exit(1)
	}
}
