package cloud

import (
	"context"
	"fmt"

	"github.com/contenox/orchestrator/orchestrator"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Kubernetes targets namespaces as the unit of a model: CreateModel ensures
// the namespace doesn't already exist, DestroyModel removes it.
type Kubernetes struct {
	client kubernetes.Interface
}

// NewKubernetes builds a client the same way as an in-cluster pod would,
// falling back to a kubeconfig file when kubeconfigPath is set (e.g. for
// running the controller outside the cluster it manages).
func NewKubernetes(kubeconfigPath string) (*Kubernetes, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", orchestrator.ErrIO, err)
		}
	}

	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", orchestrator.ErrIO, err)
	}

	return &Kubernetes{client: client}, nil
}

func (k *Kubernetes) Handle(ctx context.Context, modelName string, active orchestrator.Active) (orchestrator.Completed, error) {
	switch active.Action.Kind {
	case orchestrator.ActionCreateModel:
		return k.createNamespace(ctx, modelName, active)
	case orchestrator.ActionDestroyModel:
		return k.deleteNamespace(ctx, modelName, active)
	default:
		// Every other action is model-level bookkeeping with no Kubernetes
		// side effect of its own (config/rune attachment live only in the
		// store's derived state).
		return complete(active), nil
	}
}

func (k *Kubernetes) createNamespace(ctx context.Context, name string, active orchestrator.Active) (orchestrator.Completed, error) {
	_, err := k.client.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return orchestrator.Completed{}, &orchestrator.ModelAlreadyExistsError{Name: name}
	}
	if !apierrors.IsNotFound(err) {
		return orchestrator.Completed{}, fmt.Errorf("%w: %w", orchestrator.ErrAdapterFailure, err)
	}

	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
	if _, err := k.client.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{}); err != nil {
		return orchestrator.Completed{}, fmt.Errorf("%w: %w", orchestrator.ErrAdapterFailure, err)
	}

	return complete(active), nil
}

func (k *Kubernetes) deleteNamespace(ctx context.Context, name string, active orchestrator.Active) (orchestrator.Completed, error) {
	err := k.client.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return orchestrator.Completed{}, fmt.Errorf("%w: %w", orchestrator.ErrAdapterFailure, err)
	}
	return complete(active), nil
}
